// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package glpi provides a client for the GLPI REST API.
//
// Create a Client with New(), passing the URL of the API root
// (normally ending in "apirest.php"), or, preferably, run code inside
// Connect(), which guarantees the GLPI session is killed however the
// code exits:
//
//	err := glpi.Connect(ctx, "https://glpi.example.com/apirest.php",
//	    glpi.Options{
//	        AppToken: "APPTOKEN",
//	        Auth:     glpi.UserToken("USERTOKEN"),
//	    },
//	    func(c *glpi.Client) error {
//	        item, err := c.GetItem(ctx, "Computer", 1, nil)
//	        ...
//	    })
//
// Every request carries the session token obtained at connect time.
// Failing responses are returned as ErrGLPI, if the server sent a GLPI
// error document, or ErrorHTTP otherwise; transport failures are
// returned as ErrCommunication.  Nothing is retried.
package glpi

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Auth provides the credentials used to open a session.
type Auth interface {
	// Authorization returns the value of the Authorization:
	// header sent to initSession.
	Authorization() string
}

// UserToken authenticates with a user's personal API token.
type UserToken string

// Authorization returns a user_token authorization header.
func (t UserToken) Authorization() string {
	return "user_token " + string(t)
}

// BasicAuth authenticates with a login and password.
type BasicAuth struct {
	Username string
	Password string
}

// Authorization returns an HTTP basic authorization header.
func (b BasicAuth) Authorization() string {
	creds := b.Username + ":" + b.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

// Options controls how a Client is created.  Only Auth is required.
type Options struct {
	// AppToken is the API client token configured in GLPI, if
	// the server requires one.
	AppToken string

	// Auth provides the session credentials.
	Auth Auth

	// HTTPClient performs requests.  If nil, a new client is
	// created using Timeout and Insecure.
	HTTPClient *http.Client

	// Timeout bounds each request when HTTPClient is nil.  Zero
	// means no timeout.
	Timeout time.Duration

	// Insecure disables TLS certificate verification when
	// HTTPClient is nil.  Self-hosted GLPI instances frequently
	// run with self-signed certificates.
	Insecure bool

	// Logger receives request logs.  If nil, uses the logrus
	// standard logger.
	Logger logrus.FieldLogger

	// Metrics, if non-nil, records request counts and durations.
	Metrics *Metrics

	// Clock is the time source for request timing.  Only test
	// code should need to set this.
	Clock clock.Clock

	// FieldCacheSize is the number of itemtypes whose search
	// options are kept for FieldID() and FieldUID().  Defaults
	// to 32.
	FieldCacheSize int
}

// Client talks to one GLPI server within one session.  It is safe for
// use from multiple goroutines, but makes no requests on its own.
type Client struct {
	base       *url.URL
	appToken   string
	httpClient *http.Client
	log        logrus.FieldLogger
	metrics    *Metrics
	clock      clock.Clock
	fields     *lru

	lock    sync.Mutex
	token   string
	session string
}

// NewClient creates a client without opening a session.  Call
// InitSession() before anything else.  Most callers want New() or
// Connect() instead.
func NewClient(baseURL string, opts Options) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if !base.IsAbs() {
		return nil, &url.Error{Op: "parse", URL: baseURL, Err: errNotAbsolute}
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	c := &Client{
		base:       base,
		appToken:   opts.AppToken,
		httpClient: opts.HTTPClient,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		clock:      opts.Clock,
	}
	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.Insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		c.httpClient = &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		}
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	size := opts.FieldCacheSize
	if size <= 0 {
		size = 32
	}
	c.fields = newLRU(size)
	return c, nil
}

// New creates a client and opens a session with opts.Auth.  The
// caller must call KillSession() when done.
func New(ctx context.Context, baseURL string, opts Options) (*Client, error) {
	c, err := NewClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	if err = c.InitSession(ctx, opts.Auth); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect opens a session, calls fn with the connected client, and
// kills the session when fn returns, even if it fails or panics.
// If both fn and the kill fail, the returned error carries both.
func Connect(ctx context.Context, baseURL string, opts Options, fn func(*Client) error) (err error) {
	c, err := New(ctx, baseURL, opts)
	if err != nil {
		return err
	}
	defer func() {
		recovered := recover()
		// The caller's context may already be canceled, which is
		// exactly when the session most needs closing.
		kerr := c.KillSession(context.WithoutCancel(ctx))
		if recovered != nil {
			if kerr != nil {
				c.log.WithError(kerr).Warn("Could not kill GLPI session")
			}
			panic(recovered)
		}
		if kerr != nil {
			if err == nil {
				err = kerr
			} else {
				err = multierror.Append(err, kerr)
			}
		}
	}()
	return fn(c)
}

// URL returns the API root this client talks to.
func (c *Client) URL() *url.URL {
	u := *c.base
	return &u
}

// Connected returns true if the client holds a live session token.
func (c *Client) Connected() bool {
	return c.sessionToken() != ""
}

func (c *Client) sessionToken() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.token
}

// sessionID returns the client-local identifier of the current
// session, used to correlate log lines without logging the token.
func (c *Client) sessionID() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.session
}

// InitSession opens a new session and stores its token.  Any session
// the client previously held is forgotten, not killed.
func (c *Client) InitSession(ctx context.Context, auth Auth) error {
	if auth == nil {
		return ErrBadAuth
	}
	authorization := auth.Authorization()
	if authorization == "" {
		return ErrBadAuth
	}

	var resp struct {
		SessionToken string `json:"session_token"`
	}
	_, err := c.do(ctx, request{
		Method:        http.MethodGet,
		Endpoint:      "initSession",
		Authorization: authorization,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.SessionToken == "" {
		return ErrCommunication{Err: errNoSessionToken}
	}

	session := uuid.NewV4().String()
	c.lock.Lock()
	c.token = resp.SessionToken
	c.session = session
	c.lock.Unlock()
	c.log.WithFields(logrus.Fields{
		"url":     c.base.String(),
		"session": session,
	}).Info("Opened GLPI session")
	return nil
}

// KillSession destroys the current session.  The client cannot be
// used afterwards.  Killing a client without a session does nothing.
func (c *Client) KillSession(ctx context.Context) error {
	if !c.Connected() {
		return nil
	}
	_, err := c.do(ctx, request{
		Method:   http.MethodGet,
		Endpoint: "killSession",
	}, nil)
	if err != nil {
		return err
	}
	c.lock.Lock()
	session := c.session
	c.token = ""
	c.session = ""
	c.lock.Unlock()
	c.log.WithField("session", session).Info("Killed GLPI session")
	return nil
}
