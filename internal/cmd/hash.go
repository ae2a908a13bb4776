package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/streamutil"
)

// errDifferent makes `capsela equal` exit non-zero for differing files.
var errDifferent = errors.New("files differ")

var hashCmd = &cobra.Command{
	Use:   "hash <file>...",
	Short: "Print digests of files",
	Long: `Print digests of files in the format of sha1sum and friends.
A file named - is read from standard input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHash,
}

var equalCmd = &cobra.Command{
	Use:   "equal <a> <b>",
	Short: "Compare two files byte for byte",
	Args:  cobra.ExactArgs(2),
	RunE:  runEqual,
}

var hashAlgorithm string

func init() {
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(equalCmd)

	var names []string
	for _, alg := range streamutil.Algorithms {
		names = append(names, string(alg))
	}
	hashCmd.Flags().StringVarP(&hashAlgorithm, "algorithm", "a", string(streamutil.SHA1), "digest: "+strings.Join(names, ", "))
}

// openSources opens each path, or stdin for "-". The returned closer closes
// every opened file.
func openSources(cmd *cobra.Command, paths []string) ([]any, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	sources := make([]any, 0, len(paths))
	for _, path := range paths {
		if path == "-" {
			sources = append(sources, cmd.InOrStdin())
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)
		sources = append(sources, f)
	}
	return sources, closeAll, nil
}

func runHash(cmd *cobra.Command, args []string) error {
	alg, err := streamutil.ParseAlgorithm(hashAlgorithm)
	if err != nil {
		return err
	}
	sources, closeAll, err := openSources(cmd, args)
	if err != nil {
		return err
	}
	defer closeAll()

	sums, err := streamutil.HashAll(cmd.Context(), alg, sources...)
	if err != nil {
		return err
	}
	for i, sum := range sums {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", hex.EncodeToString(sum), args[i])
	}
	return nil
}

func runEqual(cmd *cobra.Command, args []string) error {
	sources, closeAll, err := openSources(cmd, args)
	if err != nil {
		return err
	}
	defer closeAll()

	same, err := streamutil.Equal(cmd.Context(), sources[0], sources[1])
	if err != nil {
		return err
	}
	if !same {
		fmt.Fprintf(cmd.OutOrStdout(), "%s and %s differ\n", args[0], args[1])
		return errDifferent
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s and %s are equal\n", args[0], args[1])
	return nil
}
