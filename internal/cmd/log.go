package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/capsela/capsela-util/internal/logging"
)

var logCmd = &cobra.Command{
	Use:   "log <priority> <message>...",
	Short: "Write one log line",
	Long: `Write one log line in the capsela log format:

  2011-02-10 14:03:12 WARNING: disk almost full

Priorities are the syslog names (emergency, alert, critical, error, warning,
notice, info, debug) or their numbers 0-7. Priorities from emergency to
warning go to stderr, the others to stdout.`,
	Example: `  capsela log notice deploy finished
  capsela log 3 "could not reach db.internal"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	p, err := logging.ParsePriority(args[0])
	if err != nil {
		return err
	}

	logger := logging.NewLogger("capsela.log", logging.Debug)
	sink := logging.NewLog(logging.WithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	sink.Watch(logger)

	logger.Log(p, strings.Join(args[1:], " "))
	return nil
}
