// Command web serves the sales dashboard over HTTP and websockets.
//
// Configuration comes from config.yaml and SALES_* environment
// variables; see package config.
//
//	web            start the server
//	web -version   print the build and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"salesdash/internal/app"
	"salesdash/internal/infrastructure"
	"salesdash/pkg/contracts"
)

func main() {
	showVersion := flag.Bool("version", false, "print the build and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.CurrentBuild())
		return
	}
	os.Exit(run())
}

func run() int {
	defer infrastructure.CloseLogFile()

	a, err := app.NewApplication(context.Background())
	if err != nil {
		slog.Error("Startup failed", slog.String("error", err.Error()))
		return 1
	}
	if err := a.Run(); err != nil {
		a.Logger.Error("Server exited", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
