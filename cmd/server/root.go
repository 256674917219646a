package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the coursehub CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coursehub",
		Short: "coursehub - users and courses REST API",
		Long: `coursehub serves a JSON REST API for users and the courses they own.
Requests are authenticated with HTTP Basic credentials checked against
bcrypt password hashes, and only a course's owner may change it.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
