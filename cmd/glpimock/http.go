// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"github.com/diffeo/go-glpi/glpitest"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/negroni"
	"net/http"
)

// newHandler builds the daemon's HTTP handler: the fake API, the
// metrics endpoint, panic recovery and optional request logging.
func newHandler(server *glpitest.Server, logRequests bool) http.Handler {
	r := mux.NewRouter()
	server.PopulateRouter(r.PathPrefix(glpitest.APIPath).Subrouter())
	r.Handle("/metrics", promhttp.Handler())

	n := negroni.New()
	n.Use(negroni.NewRecovery())
	if logRequests {
		n.Use(negroni.NewLogger())
	}
	n.UseHandler(r)
	return n
}
