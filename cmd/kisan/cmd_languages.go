package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kisandoctor/internal/types"
)

// languagesCmd lists the supported reply languages
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported reply languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		printLanguages(cmd.OutOrStdout())
		return nil
	},
}

func printLanguages(out io.Writer) {
	for _, l := range types.Languages {
		fmt.Fprintf(out, "  %-3s %-10s %s\n", l.Code, l.Name, l.NativeName)
	}
}
