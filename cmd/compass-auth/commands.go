package main

import (
	"errors"
	"fmt"

	compassAuth "github.com/careercompass/compassAuth"
	"github.com/spf13/cobra"
)

// userError turns a manager error into the message a person should see, and
// keeps the sentinel for errors.Is.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", compassAuth.DisplayMessage(err), err)
}

func newRegisterCmd(run runner) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (does not log in)",
		RunE: run(func(cmd *cobra.Command, a *app) error {
			pw, err := passwordFrom(password, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res, err := a.manager.Register(cmd.Context(), compassAuth.RegisterInput{
				Email:    email,
				Password: pw,
				Name:     name,
			})
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newLoginCmd(run runner) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		RunE: run(func(cmd *cobra.Command, a *app) error {
			pw, err := passwordFrom(password, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res, err := a.manager.Login(cmd.Context(), email, pw)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", res.User.Name, res.User.Role)
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the persisted session",
		RunE: run(func(cmd *cobra.Command, a *app) error {
			a.manager.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user of the persisted session",
		RunE: run(func(cmd *cobra.Command, a *app) error {
			user, err := a.manager.Verify(cmd.Context())
			switch {
			case errors.Is(err, compassAuth.ErrNotAuthenticated):
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			case err != nil:
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s id=%s\n", user.Name, user.Email, user.Role, user.ID)
			return nil
		}),
	}
}

func newForgotPasswordCmd(run runner) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request password reset instructions (simulated)",
		RunE: run(func(cmd *cobra.Command, a *app) error {
			res, err := a.manager.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (request %s)\n", res.Message, res.RequestID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
