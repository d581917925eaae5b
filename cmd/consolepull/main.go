package main

import (
	cmd "github.com/hfadhel/consolepull/internal/cli"
)

func main() {
	cmd.Execute()
}
