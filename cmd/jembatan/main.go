// Command jembatan runs the bridge inventory dashboard.
package main

import (
	"os"

	"github.com/satpel-tasikmalaya/jembatan/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
