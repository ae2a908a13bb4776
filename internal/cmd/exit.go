package cmd

import (
	"fmt"
	"io"

	"github.com/capsela/capsela-util/internal/errors"
)

// Exit codes, following sysexits(3) where one fits.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 64
	ExitSoftware = 70
	ExitIO       = 74
	ExitConfig   = 78
)

// ExitCode maps the error returned by a command to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errDifferent):
		return ExitFailure
	case errors.IsConfigError(err):
		return ExitConfig
	case errors.Is(err, errors.ErrInvalidInput):
		return ExitUsage
	case errors.IsStreamError(err):
		return ExitIO
	case errors.IsMisuse(err):
		return ExitSoftware
	default:
		return ExitFailure
	}
}

// reportError prints err for the user. Typed errors that are not meant for
// users are marked as internal. A differing `equal` has already said so on
// stdout.
func reportError(w io.Writer, err error) {
	if err == nil || errors.Is(err, errDifferent) {
		return
	}
	var typed errors.CapselaError
	if errors.As(err, &typed) && !errors.IsUserFacing(err) {
		fmt.Fprintf(w, "Error (internal, %s): %v\n", errors.GetSeverity(err), err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
