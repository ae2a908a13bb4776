package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/capsela/capsela-util/internal/config"
	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/ini"
)

// addFormatFlag registers --format for commands that print documents.
func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "o", "", "output format: "+strings.Join(config.ValidOutputFormats(), ", ")+" (default ini on a terminal, json otherwise)")
}

// outputFormat resolves --format, then output.format, then the terminal
// default.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = viper.GetString("output.format")
	}
	if format == "" {
		if isTerminal(cmd.OutOrStdout()) {
			return "ini", nil
		}
		return "json", nil
	}
	format = strings.ToLower(format)
	if !slices.Contains(config.ValidOutputFormats(), format) {
		return "", errors.NewValidationError(fmt.Sprintf("unknown format %q (valid: %s)", format, strings.Join(config.ValidOutputFormats(), ", "))).
			WithField("format")
	}
	return format, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or 0 when w is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// writeSection prints a single loaded section.
func writeSection(w io.Writer, sec ini.Section, format string) error {
	if format == "ini" {
		return ini.Format(w, ini.Document{ini.RootSection: sec})
	}
	return encode(w, sec.Map(), format)
}

// writeDocument prints a parsed document. Root section keys sit at the top
// level next to the named sections.
func writeDocument(w io.Writer, doc ini.Document, format string) error {
	if format == "ini" {
		return ini.Format(w, doc)
	}
	out := make(map[string]any, len(doc))
	if root, ok := doc[ini.RootSection]; ok {
		for k, v := range root.Map() {
			out[k] = v
		}
	}
	for name, sec := range doc {
		if name != ini.RootSection {
			out[name] = sec.Map()
		}
	}
	return encode(w, out, format)
}

// writeValue prints a scalar on its own line, or a nested value as a
// document.
func writeValue(w io.Writer, v any, format string) error {
	if m, ok := v.(map[string]any); ok {
		return writeSection(w, ini.Section(m), format)
	}
	if f, ok := v.(float64); ok {
		_, err := fmt.Fprintln(w, formatNumber(f))
		return err
	}
	_, err := fmt.Fprintln(w, v)
	return err
}

func encode(w io.Writer, m map[string]any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonSafe(m))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(m)
	}
	return fmt.Errorf("unknown format %q", format)
}

// jsonSafe replaces NaN, which JSON cannot represent, with null.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonSafe(val)
		}
		return out
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
	}
	return v
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return fmt.Sprint(f)
}
