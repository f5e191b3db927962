// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"context"
	"github.com/diffeo/go-glpi/config"
	"github.com/diffeo/go-glpi/glpi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"io"
)

// env holds the state shared by all commands of one invocation.
type env struct {
	ctx    context.Context
	fs     afero.Fs
	out    io.Writer
	log    *logrus.Logger
	config *config.Config
	auth   config.Auth
	format string
}

// newApp builds the command-line application.  Files named on the
// command line are resolved in fs; results go to out and diagnostics
// to errOut.
func newApp(ctx context.Context, fs afero.Fs, out, errOut io.Writer) *cli.App {
	e := &env{
		ctx: ctx,
		fs:  fs,
		out: out,
		log: &logrus.Logger{
			Out:       errOut,
			Formatter: new(logrus.TextFormatter),
			Hooks:     make(logrus.LevelHooks),
			Level:     logrus.WarnLevel,
		},
	}

	app := cli.NewApp()
	app.Name = "glpi"
	app.Usage = "Talk to a GLPI server through its REST API"
	app.Writer = out
	app.ErrWriter = errOut
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "configuration YAML file (default " + config.DefaultPath + ")",
		},
		cli.StringFlag{
			Name:  "url",
			Usage: "URL of the API root, e.g. https://glpi.example.com/apirest.php",
		},
		cli.StringFlag{
			Name:  "app-token",
			Usage: "API client token",
		},
		cli.GenericFlag{
			Name:  "auth",
			Usage: "credentials, user_token:TOKEN or basic:USER:PASSWORD",
			Value: &e.auth,
		},
		cli.BoolFlag{
			Name:  "insecure",
			Usage: "do not verify TLS certificates",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "log every request",
		},
		cli.StringFlag{
			Name:  "format",
			Usage: "output format, json or table",
			Value: formatTable,
		},
	}
	app.Before = e.setup
	app.Commands = e.commands()
	return app
}

// setup loads the configuration and applies the global flags.
func (e *env) setup(c *cli.Context) error {
	if c.GlobalBool("verbose") {
		e.log.SetLevel(logrus.DebugLevel)
	}
	e.format = c.GlobalString("format")
	if e.format != formatJSON && e.format != formatTable {
		return errors.Errorf("unknown output format %q", e.format)
	}

	cfg, err := config.Load(e.fs, c.GlobalString("config"))
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	cfg.ApplyEnv()
	if url := c.GlobalString("url"); url != "" {
		cfg.URL = url
	}
	if token := c.GlobalString("app-token"); token != "" {
		cfg.AppToken = token
	}
	if e.auth.IsSet() {
		cfg.SetAuth(e.auth)
	}
	if c.GlobalBool("insecure") {
		cfg.Insecure = true
	}
	e.config = cfg
	e.log.WithField("config", cfg.Redacted()).Debug("Loaded configuration")
	return nil
}

// withClient adapts a command body to run inside a GLPI session.
func (e *env) withClient(fn func(*cli.Context, *glpi.Client) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		if err := e.config.Validate(); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}
		opts := e.config.ClientOptions()
		opts.Logger = e.log
		return glpi.Connect(e.ctx, e.config.URL, opts, func(client *glpi.Client) error {
			return fn(c, client)
		})
	}
}
