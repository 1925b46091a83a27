package main

import (
	"os"

	"atvremote/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
