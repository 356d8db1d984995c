package main

import (
	"os"

	"github.com/PlumyCat/trad-bot-src/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
