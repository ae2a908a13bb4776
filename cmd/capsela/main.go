// Command capsela inspects capsela configuration, INI files and logs.
package main

import (
	"os"

	"github.com/capsela/capsela-util/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
