package main

import (
	"github.com/spf13/cobra"
)

type runner func(func(*cobra.Command, *app) error) func(*cobra.Command, []string) error

// NewRootCmd creates the root command. Config is resolved once per invocation
// in PersistentPreRunE and the resulting app is shared with the subcommand.
func NewRootCmd() *cobra.Command {
	var a *app

	cmd := &cobra.Command{
		Use:          "compass-auth",
		Short:        "CareerCompass demo authentication",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			a, err = newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.manager.Restore(cmd.Context())
			return nil
		},
	}

	registerConfigFlags(cmd.PersistentFlags())

	// run hands the resolved app to a subcommand and releases it afterwards,
	// whether or not the subcommand failed.
	run := func(fn func(*cobra.Command, *app) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			defer a.Close()
			return fn(cmd, a)
		}
	}

	cmd.AddCommand(newRegisterCmd(run))
	cmd.AddCommand(newLoginCmd(run))
	cmd.AddCommand(newLogoutCmd(run))
	cmd.AddCommand(newWhoamiCmd(run))
	cmd.AddCommand(newForgotPasswordCmd(run))
	cmd.AddCommand(newBenchCmd(run))

	return cmd
}
