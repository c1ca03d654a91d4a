package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kisandoctor/cmd/kisan/chat"
	"kisandoctor/internal/store"
	"kisandoctor/internal/types"
)

var (
	historyUser  string
	historyPIN   string
	historyLimit int
)

// historyCmd prints a farmer's saved conversation
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the saved conversation",
	Long:  `Prints the signed-in farmer's conversation. Without --user the last active farmer is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, user, err := openForUser(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		return printHistory(cmdContext(cmd), st, cmd.OutOrStdout(), user, historyLimit)
	},
}

// reportsCmd prints a farmer's diagnosis reports
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Show saved diagnosis reports, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, user, err := openForUser(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		return printReports(cmdContext(cmd), st, cmd.OutOrStdout(), user, historyLimit)
	},
}

func init() {
	for _, c := range []*cobra.Command{historyCmd, reportsCmd} {
		c.Flags().StringVarP(&historyUser, "user", "u", "", "Username")
		c.Flags().StringVar(&historyPIN, "pin", "", "PIN for --user")
		c.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show at most n entries (0 = all)")
	}
}

func openForUser(cmd *cobra.Command) (*store.LocalStore, *types.User, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	user, err := resolveUser(cmdContext(cmd), st, historyUser, historyPIN, true)
	if err == nil && user == nil {
		err = errors.New("no farmer signed in; run kisan login first")
	}
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, user, nil
}

func printHistory(ctx context.Context, st *store.LocalStore, out io.Writer, user *types.User, limit int) error {
	messages, err := st.LoadHistory(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Fprintf(out, "No conversation saved for %s.\n", user.Username)
		return nil
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	for _, m := range messages {
		stamp := m.Timestamp.Local().Format(time.DateTime)
		switch m.Role {
		case types.RoleUser:
			text := m.Content.Text
			if m.Content.ImageURI != "" {
				text = strings.TrimSpace(text + " [photo]")
			}
			if m.Content.AudioURI != "" {
				text = strings.TrimSpace(text + " [voice]")
			}
			fmt.Fprintf(out, "[%s] You: %s\n", stamp, text)
		default:
			fmt.Fprintf(out, "[%s] Kisan: %s\n", stamp, summarize(m.Content.BotResponse))
		}
	}
	return nil
}

func summarize(resp *types.BotResponse) string {
	if resp == nil {
		return ""
	}
	if resp.DiagnosisData != nil {
		return fmt.Sprintf("%s (%s, %s)", resp.DiagnosisData.DiseaseName, resp.DiagnosisData.CropDetected, resp.DiagnosisData.Confidence)
	}
	return resp.TextResponse
}

func printReports(ctx context.Context, st *store.LocalStore, out io.Writer, user *types.User, limit int) error {
	reports, err := st.ListReports(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintf(out, "No reports saved for %s.\n", user.Username)
		return nil
	}
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}

	renderer := chat.NewRenderer(80)
	for _, r := range reports {
		fmt.Fprint(out, chat.RenderMarkdown(renderer, chat.FormatReport(r)))
	}
	return nil
}
