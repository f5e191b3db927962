// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpitest

// This file contains the request/response skeleton shared by every
// endpoint: App-Token and Session-Token checks, body decoding, and
// writing results or GLPI error documents.

import (
	"fmt"
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/gorilla/mux"
	"github.com/ugorji/go/codec"
	"net/http"
	"strings"
)

// apiError is an error that is sent as a GLPI error document.
type apiError struct {
	Status  int
	Key     string
	Message string
}

func (e apiError) Error() string {
	return fmt.Sprintf("(%s) %s", e.Key, e.Message)
}

func (e apiError) HTTPStatus() int {
	return e.Status
}

// response is returned from handler functions that need a status code
// other than 200 or extra headers.
type response struct {
	Status int
	Header http.Header
	Body   interface{}
}

// rawResponse is returned from handler functions that send something
// other than JSON.
type rawResponse struct {
	ContentType string
	Body        []byte
}

// context carries the per-request state handler functions need.
type context struct {
	Request *http.Request
	Vars    map[string]string
	Session *session
}

// decodeBody decodes a JSON request body into out.
func (ctx *context) decodeBody(out interface{}) error {
	err := glpidata.Decode(ctx.Request.Header.Get("Content-Type"), ctx.Request.Body, out)
	if err != nil {
		return apiError{
			Status:  http.StatusBadRequest,
			Key:     glpidata.ErrorJSONPayloadInvalid,
			Message: "JSON payload seems not valid",
		}
	}
	return nil
}

// decodeInput decodes a {"input": ...} body into a list of items.  A
// single object is accepted as a one-element list.
func (ctx *context) decodeInput() ([]glpidata.Item, error) {
	var body map[string]interface{}
	if err := ctx.decodeBody(&body); err != nil {
		return nil, err
	}
	input, present := body["input"]
	if !present {
		return nil, badArray("input parameter must be an array of objects")
	}
	return glpidata.ToItems(input), nil
}

// truthy interprets a query parameter the way PHP would.
func truthy(value string) bool {
	switch strings.ToLower(value) {
	case "", "0", "false":
		return false
	}
	return true
}

type handlerFunc func(*context) (interface{}, error)

// endpoint is an http.Handler for one API function.
type endpoint struct {
	Server *Server

	// Anonymous endpoints do not require a session.
	Anonymous bool

	Handle handlerFunc
}

func (e *endpoint) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	// Recover from panics by sending a GLPI-shaped error.
	defer func() {
		if recovered := recover(); recovered != nil {
			writeError(resp, http.StatusInternalServerError, glpidata.ErrorDocument{
				Key:     "ERROR",
				Message: fmt.Sprintf("panic: %v", recovered),
			})
		}
	}()

	sessionToken := req.Header.Get("Session-Token")
	appToken := req.Header.Get("App-Token")
	e.Server.record(Request{
		Method:       req.Method,
		Path:         req.URL.Path,
		Query:        req.URL.Query(),
		SessionToken: sessionToken,
		AppToken:     appToken,
	})

	ctx := &context{Request: req, Vars: mux.Vars(req)}
	if ctx.Vars == nil {
		ctx.Vars = map[string]string{}
	}
	var out interface{}
	err := e.Server.checkAppToken(appToken)
	if err == nil && !e.Anonymous {
		ctx.Session, err = e.Server.lookupSession(sessionToken)
	}
	if err == nil {
		out, err = e.Handle(ctx)
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errS, hasStatus := err.(interface{ HTTPStatus() int }); hasStatus {
			status = errS.HTTPStatus()
		}
		doc := glpidata.ErrorDocument{Key: "ERROR", Message: err.Error()}
		if apiErr, isAPI := err.(apiError); isAPI {
			doc = glpidata.ErrorDocument{Key: apiErr.Key, Message: apiErr.Message}
		}
		writeError(resp, status, doc)
		return
	}

	switch o := out.(type) {
	case nil:
		resp.WriteHeader(http.StatusOK)
	case rawResponse:
		resp.Header().Set("Content-Type", o.ContentType)
		resp.WriteHeader(http.StatusOK)
		_, _ = resp.Write(o.Body)
	case response:
		writeJSON(resp, o.Status, o.Header, o.Body)
	default:
		writeJSON(resp, http.StatusOK, nil, out)
	}
}

func writeJSON(resp http.ResponseWriter, status int, header http.Header, body interface{}) {
	for k, v := range header {
		resp.Header()[k] = v
	}
	if body == nil {
		resp.WriteHeader(status)
		return
	}
	resp.Header().Set("Content-Type", glpidata.JSONMediaType+"; charset=UTF-8")
	resp.WriteHeader(status)
	// Past this point nothing better can be done with an error
	// than dropping it, since the status line has been sent.
	_ = codec.NewEncoder(resp, glpidata.JSONHandle()).Encode(body)
}

// writeError sends a GLPI error document.
func writeError(resp http.ResponseWriter, status int, doc glpidata.ErrorDocument) {
	body, err := doc.MarshalBody()
	if err != nil {
		http.Error(resp, err.Error(), http.StatusInternalServerError)
		return
	}
	resp.Header().Set("Content-Type", glpidata.JSONMediaType+"; charset=UTF-8")
	resp.WriteHeader(status)
	_, _ = resp.Write(body)
}

func (s *Server) record(req Request) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.count++
	if s.RequestLogSize <= 0 {
		s.requests = nil
		return
	}
	s.requests = append(s.requests, req)
	if extra := len(s.requests) - s.RequestLogSize; extra > 0 {
		s.requests = append(s.requests[:0:0], s.requests[extra:]...)
	}
}

func (s *Server) checkAppToken(appToken string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.AppToken != "" && appToken != s.AppToken {
		return apiError{
			Status:  http.StatusBadRequest,
			Key:     glpidata.ErrorAppTokenParameters,
			Message: "app_token seems invalid",
		}
	}
	return nil
}
