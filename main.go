// ./main.go
package main

import (
	"github.com/xkilldash9x/boxflow/cmd"
)

// main is the entry point for the boxflow CLI.
func main() {
	cmd.Execute()
}
