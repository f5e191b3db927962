// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Glpimock serves a fake GLPI REST API for local development, backed
// by github.com/diffeo/go-glpi/glpitest.  The API is under
// /apirest.php and Prometheus metrics under /metrics:
//
//	glpimock -http :8080 -user glpi:glpi:mytoken -fixture data.yaml
//
// State lives only in memory and is lost when the daemon exits.
package main

import (
	"flag"
	"github.com/diffeo/go-glpi/glpitest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"net/http"
)

func main() {
	httpBind := flag.String("http", ":8080", "[ip]:port for the HTTP interface")
	fixture := flag.String("fixture", "", "YAML file of users and objects to load")
	appToken := flag.String("app-token", "", "require this App-Token on every request")
	logRequests := flag.Bool("log-requests", false, "log all requests")
	var users userList
	flag.Var(&users, "user", "login:password[:user_token] of an account (repeatable)")
	flag.Parse()

	server := glpitest.New()
	server.AppToken = *appToken
	// Only the request count is exported; the daemon keeps no log.
	server.RequestLogSize = 0
	if *fixture != "" {
		f, err := loadFixture(afero.NewOsFs(), *fixture)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"err": err,
			}).Fatal("Could not load fixture")
			return
		}
		f.Apply(server)
	}
	for _, user := range users {
		server.AddUser(user)
	}

	if err := registerMetrics(prometheus.DefaultRegisterer, server); err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("Could not register metrics")
		return
	}

	logrus.WithFields(logrus.Fields{
		"http":  *httpBind,
		"users": len(users),
	}).Info("Serving fake GLPI")
	err := http.ListenAndServe(*httpBind, newHandler(server, *logRequests))
	logrus.WithFields(logrus.Fields{
		"err": err,
	}).Fatal("HTTP server stopped")
}
