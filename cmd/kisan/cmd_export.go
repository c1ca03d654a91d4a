package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var exportOut string

// exportCmd writes a consistent copy of the database
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the whole database as a SQLite snapshot",
	Example: `  kisan export --out backup.sqlite`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		data, err := st.ExportSnapshot(cmdContext(cmd))
		if err != nil {
			return err
		}

		path := exportOut
		if path == "" {
			path = fmt.Sprintf("kisan_db_backup_%s.sqlite", time.Now().Format("20060102_150405"))
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d bytes to %s\n", len(data), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default kisan_db_backup_<time>.sqlite)")
}
