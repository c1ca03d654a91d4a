package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kisandoctor/cmd/kisan/chat"
	"kisandoctor/internal/types"
)

var (
	diagnoseImage string
	diagnoseAudio string
	diagnoseUser  string
	diagnosePIN   string
	diagnoseJSON  bool
)

// diagnoseCmd runs a single turn without the chat view
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [question...]",
	Short: "Diagnose a leaf photo or answer one question",
	Long: `Runs one turn through the full pipeline and prints the answer.

Examples:
  kisan diagnose --image leaf.jpg
  kisan diagnose --image leaf.jpg "brown rings on the lower leaves"
  kisan diagnose --lang hi "which fertilizer for wheat in December"`,
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVarP(&diagnoseImage, "image", "i", "", "Leaf photo to diagnose")
	diagnoseCmd.Flags().StringVarP(&diagnoseAudio, "audio", "a", "", "Voice note to send")
	diagnoseCmd.Flags().StringVarP(&diagnoseUser, "user", "u", "", "Save the turn and report for this user")
	diagnoseCmd.Flags().StringVar(&diagnosePIN, "pin", "", "PIN for --user")
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "Print the raw response as JSON")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	text := strings.Join(args, " ")
	image, err := loadOptionalMedia(diagnoseImage)
	if err != nil {
		return err
	}
	audio, err := loadOptionalMedia(diagnoseAudio)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := resolveUser(ctx, a.store, diagnoseUser, diagnosePIN, false)
	if err != nil {
		return err
	}
	conv, err := a.conversation(ctx, user)
	if err != nil {
		return err
	}
	defer conv.Close()

	resp, err := conv.Send(ctx, text, image, audio)
	if err != nil {
		return err
	}
	return printResponse(cmd, resp)
}

func printResponse(cmd *cobra.Command, resp *types.BotResponse) error {
	out := cmd.OutOrStdout()
	if diagnoseJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	fmt.Fprint(out, chat.RenderMarkdown(chat.NewRenderer(80), chat.FormatResponse(resp)))
	return nil
}

func loadOptionalMedia(path string) (*types.Media, error) {
	if path == "" {
		return nil, nil
	}
	media, err := chat.LoadMedia(os.ReadFile, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return media, nil
}
