package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/capsela/capsela-util/internal/logging"
	"github.com/capsela/capsela-util/internal/util"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Read capsela log files",
}

var logsFilterCmd = &cobra.Command{
	Use:   "filter <file>",
	Short: "Filter and export the entries of a log file",
	Long: `Filter and export the entries of a log file.

Lines that do not start with a timestamp and priority are treated as the
continuation of the previous entry's message.

Examples:
  # Errors and worse
  capsela logs filter app.log --priority error

  # The last hour, as JSON
  capsela logs filter app.log --since 1h --format json

  # Everything mentioning a host between two times
  capsela logs filter app.log --contains db.internal \
    --since "2011-02-10 14:00:00" --until "2011-02-10 15:00:00"`,
	Args: cobra.ExactArgs(1),
	RunE: runLogsFilter,
}

var (
	logsPriority string
	logsSince    string
	logsUntil    string
	logsContains string
	logsFormat   string
	logsTail     int
)

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsFilterCmd)

	flags := logsFilterCmd.Flags()
	flags.StringVarP(&logsPriority, "priority", "p", "", "keep entries at this priority or more severe")
	flags.StringVar(&logsSince, "since", "", "keep entries since a duration ago (1h) or a time (2006-01-02 15:04:05)")
	flags.StringVar(&logsUntil, "until", "", "keep entries until a duration ago or a time")
	flags.StringVar(&logsContains, "contains", "", "keep entries whose message contains this text")
	flags.StringVarP(&logsFormat, "format", "o", "", "export format: "+strings.Join(logging.ExportFormats, ", ")+" (default colored lines)")
	flags.IntVarP(&logsTail, "tail", "n", 0, "show only the last n entries (0 for all)")
}

// priorityStyles colors levels in terminal output.
var priorityStyles = map[logging.Priority]lipgloss.Style{
	logging.Emergency: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")),
	logging.Alert:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	logging.Critical:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	logging.Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	logging.Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	logging.Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	logging.Info:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	logging.Debug:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

var timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// levelWidth fits the longest level name, EMERGENCY.
const levelWidth = 9

func runLogsFilter(cmd *cobra.Command, args []string) error {
	if logsFormat != "" && !slices.Contains(logging.ExportFormats, logsFormat) {
		return fmt.Errorf("unknown format %q (valid: %s)", logsFormat, strings.Join(logging.ExportFormats, ", "))
	}
	if logsPriority != "" {
		if _, err := logging.ParsePriority(logsPriority); err != nil {
			return err
		}
	}

	now := time.Now()
	filter := logging.Filter{Priority: logsPriority, Contains: logsContains}
	var err error
	if filter.Since, err = parseTimeFlag(logsSince, now); err != nil {
		return fmt.Errorf("invalid --since: %w", err)
	}
	if filter.Until, err = parseTimeFlag(logsUntil, now); err != nil {
		return fmt.Errorf("invalid --until: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	entries, err := logging.ReadEntries(f)
	if err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}
	entries = logging.FilterEntries(entries, filter)
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	out := cmd.OutOrStdout()
	if logsFormat != "" {
		return logging.ExportEntries(out, entries, logsFormat)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
		return nil
	}
	width := terminalWidth(out)
	for _, e := range entries {
		fmt.Fprintln(out, formatEntry(e, width))
	}
	return nil
}

// formatEntry renders an entry on one line, truncated to width columns when
// width is positive.
func formatEntry(e logging.Entry, width int) string {
	style, ok := priorityStyles[e.Priority]
	if !ok {
		style = lipgloss.NewStyle()
	}
	line := timeStyle.Render(e.Time.Format(logging.TimeLayout)) + " " +
		style.Render(util.PadRight(e.Level, levelWidth)) + " " +
		util.FirstLine(e.Message)
	return util.Truncate(line, width)
}

// parseTimeFlag accepts a duration before now, a time in the log format, or
// an RFC 3339 time.
func parseTimeFlag(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.ParseInLocation(logging.TimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither a duration nor a time", s)
	}
	return t, nil
}
