package main

import (
	"context"
	"log"

	"github.com/dalemusser/waffle/app"
	"github.com/joho/godotenv"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/bootstrap"
)

func main() {
	// Load a local .env if present; real env vars win over file values.
	_ = godotenv.Load()

	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
