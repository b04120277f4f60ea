package main

import (
	"os"

	"github.com/thesyncim/libgopixbuf/cmd/pixbuf/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
