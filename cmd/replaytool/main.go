package main

import (
	"context"
	"log"
	"os"

	"popblast/replay/internal/app"
)

func main() {
	if err := app.Run(context.Background(), app.Config{}, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}
