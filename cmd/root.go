package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mission-control application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mission-control",
	Short: "Web dashboard for Kognitos Kubernetes resources",
	Long: `mission-control is a local web dashboard for browsing Kognitos
resources (Books, BookConnections, TriggerInstances) and supporting
Kubernetes objects (Deployments, Secrets, Pods) across kube contexts.

When run without subcommands, it starts the dashboard server (equivalent
to 'mission-control serve').`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main
// to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mission-control version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newServeCmd())
}
