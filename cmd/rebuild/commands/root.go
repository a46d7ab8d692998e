// Package commands implements the CLI commands for the rebuild tool.
package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.trai.ch/rebuild/internal/app"
	"go.trai.ch/rebuild/internal/build"
	"go.trai.ch/rebuild/internal/core/ports"
)

// CLI represents the command line interface for rebuild.
type CLI struct {
	app     *app.App
	loader  ports.ConfigLoader
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app and config loader.
func New(a *app.App, loader ports.ConfigLoader) *CLI {
	rootCmd := &cobra.Command{
		Use:           "rebuild",
		Short:         "Rebuild native addon modules against a target runtime ABI",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		loader:  loader,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
