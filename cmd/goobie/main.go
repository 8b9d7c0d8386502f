// Command goobie is the entry point for the goobie bot backend.
package main

import "github.com/goobie-bot/goobie/internal/cli"

func main() {
	cli.Execute()
}
