package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"kisandoctor/cmd/kisan/chat"
	"kisandoctor/internal/types"
	"kisandoctor/internal/weather"
)

var (
	chatUser  string
	chatPIN   string
	chatGuest bool
)

// chatCmd starts the interactive terminal chat
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	Long: `Opens the terminal chat. Attach a leaf photo with /image <path>,
change the reply language with /lang <code> and ask for the forecast with
/weather <place>.

Without --user the last active farmer is resumed; use --guest to chat
without saving history.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "Username to sign in as")
	chatCmd.Flags().StringVar(&chatPIN, "pin", "", "PIN for --user")
	chatCmd.Flags().BoolVar(&chatGuest, "guest", false, "Chat without signing in")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := resolveUser(ctx, a.store, chatUser, chatPIN, !chatGuest)
	if err != nil {
		return err
	}
	conv, err := a.conversation(ctx, user)
	if err != nil {
		return err
	}
	defer conv.Close()

	name := ""
	if user != nil {
		name = displayName(user)
	}

	model := chat.New(chat.Config{
		Conversation: conv,
		UserName:     name,
		Context:      ctx,
		Weather: func(ctx context.Context, place, lang string) types.WeatherData {
			return a.forecaster.Forecast(ctx, weather.Place(place), lang)
		},
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func displayName(u *types.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
