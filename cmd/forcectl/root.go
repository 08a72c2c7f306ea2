package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forcekit/forceclient/pkg/logging"
	"github.com/forcekit/forceclient/pkg/session"
)

var (
	redirectURL string
	instanceURL string
	apiVersion  string
	logLevel    string
	logFile     string
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "forcectl",
	Short:         "Salesforce REST client for queries, searches, inserts and batches",
	Long: `forcectl talks to a Salesforce org through its REST API using a token
obtained from an OAuth implicit-grant redirect. Pass the full redirect URL
(including the # fragment) via --redirect-url or FORCE_REDIRECT_URL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logging.Config{
			Level:  logging.LogLevel(logLevel),
			Pretty: logFile == "",
			Output: os.Stderr,
			File:   logFile,
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&redirectURL, "redirect-url", os.Getenv("FORCE_REDIRECT_URL"),
		"OAuth implicit-grant redirect URL, fragment included (env: FORCE_REDIRECT_URL)")
	rootCmd.PersistentFlags().StringVar(&instanceURL, "instance-url", "",
		"Override the instance endpoint parsed from the redirect fragment")
	rootCmd.PersistentFlags().StringVar(&apiVersion, "api-version", "",
		"REST API version (default 43.0)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Write logs to a rotated file instead of stderr")
}

// newSession builds a session from the persistent flags.
func newSession() (*session.Session, error) {
	if redirectURL == "" {
		return nil, fmt.Errorf("a redirect URL is required (--redirect-url or FORCE_REDIRECT_URL)")
	}

	opts := []session.Option{}
	if instanceURL != "" {
		opts = append(opts, session.WithInstanceURL(instanceURL))
	}
	if apiVersion != "" {
		opts = append(opts, session.WithAPIVersion(apiVersion))
	}
	opts = append(opts, session.WithLogger(logging.NewLogger("forcectl")))

	return session.New(redirectURL, opts...)
}
