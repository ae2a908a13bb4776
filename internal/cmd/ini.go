package cmd

import (
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/capsela/capsela-util/internal/ini"
	"github.com/capsela/capsela-util/internal/monitor"
)

var iniCmd = &cobra.Command{
	Use:   "ini",
	Short: "Parse and check INI files",
}

var iniParseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse an INI file and print the resulting document",
	Long: `Parse an INI file and print the resulting document.

Section inheritance ([child : parent]) is resolved, dotted keys become nested
tables and numeric values become numbers.`,
	Args: cobra.ExactArgs(1),
	RunE: runIniParse,
}

var iniCheckCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Report INI files that fail to parse",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIniCheck,
}

func init() {
	rootCmd.AddCommand(iniCmd)
	iniCmd.AddCommand(iniParseCmd)
	iniCmd.AddCommand(iniCheckCmd)

	addFormatFlag(iniParseCmd)
}

func runIniParse(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	doc, err := ini.ParseFile(args[0])
	if err != nil {
		return err
	}
	return writeDocument(cmd.OutOrStdout(), doc, format)
}

// runIniCheck parses every file concurrently and prints each result as it
// arrives.
func runIniCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var mu sync.Mutex
	failed := 0
	m := monitor.New(len(args))
	m.OnReport(func(path any, reported []any) {
		mu.Lock()
		defer mu.Unlock()
		if err, _ := reported[1].(error); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
			return
		}
		fmt.Fprintf(out, "ok   %s (%d sections)\n", path, reported[0])
	})

	var wg conc.WaitGroup
	for _, path := range args {
		report, err := m.AddReport(path)
		if err != nil {
			return err
		}
		wg.Go(func() {
			doc, err := ini.ParseFile(path)
			report(len(doc), err)
		})
	}
	wg.Wait()

	if !m.Completed() {
		return fmt.Errorf("only %d of %d files were checked", m.Collected(), m.Expected())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to parse", failed, len(args))
	}
	return nil
}
