// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"errors"
	"fmt"
	"github.com/diffeo/go-glpi/glpidata"
	"net/http"
	"strings"
)

// ErrSessionClosed is returned by every operation on a Client whose
// session has been killed.
var ErrSessionClosed = errors.New("GLPI session is closed")

// ErrBadAuth is returned when creating a client without usable
// credentials.
var ErrBadAuth = errors.New("Invalid GLPI authentication (need a user token or username and password)")

var (
	errNotAbsolute    = errors.New("not an absolute URL")
	errNoSessionToken = errors.New("initSession returned no session_token")
)

// ErrorStatus describes errors that correspond to specific HTTP status
// codes.
type ErrorStatus interface {
	// HTTPStatus returns the HTTP status code of the failing
	// response.
	HTTPStatus() int
}

// ErrGLPI is returned when the server answers with a failing status
// and a GLPI error document.
type ErrGLPI struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Key is the GLPI error key, e.g. "ERROR_ITEM_NOT_FOUND".
	Key string

	// Message is the human-readable (and localized) message.
	Message string
}

func (e ErrGLPI) Error() string {
	return fmt.Sprintf("(%s) %s", e.Key, e.Message)
}

// HTTPStatus returns the status code of the failing response.
func (e ErrGLPI) HTTPStatus() int {
	return e.StatusCode
}

// ErrorHTTP is a catch-all error for non-successes returned from the
// REST endpoint that do not carry a GLPI error document.
type ErrorHTTP struct {
	// Response holds a pointer to the failing HTTP response.
	// Its body has already been consumed.
	Response *http.Response

	// Body holds the contents of the message body, presumed to
	// be text.
	Body string
}

func (e ErrorHTTP) Error() string {
	reason := strings.TrimSpace(strings.TrimPrefix(e.Response.Status, fmt.Sprint(e.Response.StatusCode)))
	return fmt.Sprintf("unknown error: [%d/%s] %s", e.Response.StatusCode, reason, e.Body)
}

// HTTPStatus returns the status code of the failing response.
func (e ErrorHTTP) HTTPStatus() int {
	return e.Response.StatusCode
}

// ErrCommunication wraps a failure to talk to the server at all:
// connection refused, TLS failures, timeouts, or an unreadable
// response.
type ErrCommunication struct {
	Err error
}

func (e ErrCommunication) Error() string {
	return "communication error: " + e.Err.Error()
}

func (e ErrCommunication) Unwrap() error {
	return e.Err
}

// ErrNoSuchField is returned from FieldID() and FieldUID(), and from
// searches that use them, when an itemtype has no such search option.
type ErrNoSuchField struct {
	Itemtype string
	Field    string
}

func (e ErrNoSuchField) Error() string {
	return fmt.Sprintf("No search option %q for %v", e.Field, e.Itemtype)
}

// StatusCode returns the HTTP status code carried by err, or 0 if err
// did not come from a failing HTTP response.
func StatusCode(err error) int {
	var status ErrorStatus
	if errors.As(err, &status) {
		return status.HTTPStatus()
	}
	return 0
}

// IsNotFound returns true if err is a GLPI "not found" response.
func IsNotFound(err error) bool {
	var glpiErr ErrGLPI
	if errors.As(err, &glpiErr) && glpiErr.Key == glpidata.ErrorItemNotFound {
		return true
	}
	return StatusCode(err) == http.StatusNotFound
}
