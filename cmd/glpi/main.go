// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Glpi is a command-line client for the GLPI REST API.  It exposes
// every operation of the github.com/diffeo/go-glpi/glpi package, for
// instance
//
//	glpi --url https://glpi.example.com/apirest.php \
//	    --auth user_token:q56hqkniwot8wntb3z1qarka5atf365taaa2uyjrn \
//	    search Computer --criteria name:contains:pc --display serial
//
// Connection settings default to ~/.glpi.yaml and the GLPI_*
// environment variables; see github.com/diffeo/go-glpi/config.  Every
// command opens its own session and kills it before exiting.
package main

import (
	"context"
	"github.com/spf13/afero"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	app := newApp(ctx, afero.NewOsFs(), os.Stdout, os.Stderr)
	err := app.Run(os.Args)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
