package main

import (
	"log"

	"github.com/MrSnakeDoc/marks/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ marks failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ marks stopped with error: %v", err)
	}
}
