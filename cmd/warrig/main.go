// Command warrig runs commands in pods and streams their output over
// the channel protocol.
package main

import "github.com/steveyegge/warrig/internal/cmd"

func main() {
	cmd.Execute()
}
