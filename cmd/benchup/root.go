package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

var (
	// Global flags
	verbose    bool
	logFormat  string
	logLevel   string
	targetHost string
	sshUser    string
	sshPort    int
	sshKey     string
)

var rootCmd = &cobra.Command{
	Use:   "benchup",
	Short: "Provision ERPNext and HRMS on a Debian or Ubuntu host",
	Long: `Benchup installs a Frappe bench with ERPNext and HRMS on a fresh host.

Every step checks the host before acting and verifies its work afterwards,
so re-running an install only does what is still missing:
  packages → user → database → Node.js → bench → site → apps → production`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		switch logFormat {
		case "", "text", "json":
		default:
			return fail(cmd, exitConfig, fmt.Errorf("unknown log format %q: use text or json", logFormat))
		}
		if _, err := ports.ParseLevel(logLevel); err != nil {
			return fail(cmd, exitConfig, fmt.Errorf("%w: use debug, info, warn or error", err))
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every command at debug level")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (default: text on a terminal, json otherwise)")
	rootCmd.PersistentFlags().StringVar(&targetHost, "host", "", "provision a remote host over SSH instead of this machine")
	rootCmd.PersistentFlags().StringVar(&sshUser, "ssh-user", "root", "SSH user; commands run through sudo when it is not root")
	rootCmd.PersistentFlags().IntVar(&sshPort, "ssh-port", 22, "SSH port")
	rootCmd.PersistentFlags().StringVar(&sshKey, "ssh-key", "", "SSH private key (default: ~/.ssh/id_ed25519 or ~/.ssh/id_rsa)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fail(cmd, exitConfig, err)
	})

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", err)
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"text\tHuman-readable key=value lines",
			"json\tOne JSON object per line",
		}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
}
