package main

import (
	"fmt"
	"os"

	"github.com/skillforge/skillforge-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start()

	application.Log.Info("Starting HTTP server", "addr", application.Cfg.HTTPAddr)
	if err := application.Run(); err != nil {
		application.Log.Error("HTTP server exited", "error", err)
		os.Exit(1)
	}
}
