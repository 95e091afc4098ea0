package main

import (
	"os"

	"github.com/nhle/mail-triage/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
