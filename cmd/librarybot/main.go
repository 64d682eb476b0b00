// Command librarybot runs the book dialog over the console or a Telegram bot.
//
// The configuration file is taken from CONFIG_PATH; without it defaults and
// environment variables are used.
package main

import (
	"log"

	"github.com/m3rciful/librarybot/core/cmd"
)

func main() {
	if err := cmd.Run(cmd.Options{}); err != nil {
		log.Fatal(err)
	}
}
