package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sib-utrecht/portal/client"
)

const programName = "codes"

var globalFlags = struct {
	url      string
	token    string
	logLevel string
}{}

func newClient() (*client.Client, error) {
	if globalFlags.url == "" {
		return nil, fmt.Errorf("--url (or PORTAL_URL) is required")
	}
	if globalFlags.token == "" {
		return nil, fmt.Errorf("--token (or PORTAL_TOKEN) is required")
	}
	return client.New(client.Config{
		URL:   strings.TrimRight(globalFlags.url, "/"),
		Token: globalFlags.token,
	}), nil
}

func main() {
	// a .env next to the binary is the usual place for the token
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Show the current TOTP codes of your committees",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(globalFlags.logLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			return nil
		},
	}

	rootCmd.PersistentFlags().
		StringVar(&globalFlags.url, "url", os.Getenv("PORTAL_URL"), "portal base url")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.token, "token", os.Getenv("PORTAL_TOKEN"), "bearer token")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(committeesCommand())
	rootCmd.AddCommand(showCommand())
	rootCmd.AddCommand(watchCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
