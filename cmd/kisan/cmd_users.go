package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kisandoctor/internal/store"
)

var (
	registerName string
	accountUser  string
	accountPIN   string
)

// registerCmd creates a farmer account
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a farmer account",
	Example: `  kisan register --user ravi --pin 4321 --name "Ravi Patil"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		return registerUser(cmdContext(cmd), st, cmd.OutOrStdout(), accountUser, accountPIN, registerName)
	},
}

// loginCmd checks credentials and marks the farmer active
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in; the chat resumes the last signed-in farmer",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		return loginUser(cmdContext(cmd), st, cmd.OutOrStdout(), accountUser, accountPIN)
	},
}

// usersCmd lists registered farmers
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered farmers",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		return listUsers(cmdContext(cmd), st, cmd.OutOrStdout())
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&accountUser, "user", "u", "", "Username")
		c.Flags().StringVar(&accountPIN, "pin", "", "Numeric PIN")
		_ = c.MarkFlagRequired("user")
		_ = c.MarkFlagRequired("pin")
	}
	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func registerUser(ctx context.Context, st *store.LocalStore, out io.Writer, username, pin, name string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(pin) == "" {
		return errors.New("username and PIN are required")
	}
	u, err := st.CreateUser(ctx, username, pin, name)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return fmt.Errorf("%s is already registered", username)
		}
		return err
	}
	if err := st.UpdateLastActive(ctx, u.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Registered %s (%s)\n", u.Username, u.ID)
	return nil
}

func loginUser(ctx context.Context, st *store.LocalStore, out io.Writer, username, pin string) error {
	u, err := st.Authenticate(ctx, username, pin)
	if err != nil {
		return err
	}
	if err := st.UpdateLastActive(ctx, u.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Welcome back, %s\n", displayName(u))
	return nil
}

func listUsers(ctx context.Context, st *store.LocalStore, out io.Writer) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "No farmers registered yet.")
		return nil
	}

	fmt.Fprintln(out, "👩‍🌾 Registered Farmers")
	fmt.Fprintln(out, strings.Repeat("─", 50))
	for _, u := range users {
		last := "never"
		if u.LastActive.Unix() > 0 {
			last = u.LastActive.Local().Format(time.DateTime)
		}
		fmt.Fprintf(out, "  %-16s %-20s %s\n", u.Username, u.Name, last)
	}
	fmt.Fprintln(out, strings.Repeat("─", 50))
	fmt.Fprintf(out, "Total: %d farmers\n", len(users))
	return nil
}
