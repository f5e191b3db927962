// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

// This file provides the generic request plumbing shared by every
// endpoint.

import (
	"bytes"
	"context"
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/jtacoma/uritemplates"
	"github.com/sirupsen/logrus"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
)

// request describes one HTTP exchange with the server.
type request struct {
	// Method is the HTTP method.
	Method string

	// Endpoint is a URI template relative to the API root, e.g.
	// "{itemtype}/{id}".  It also labels log lines and metrics.
	Endpoint string

	// Vars fills in Endpoint.
	Vars map[string]interface{}

	// Query is appended to the URL.
	Query url.Values

	// In, if non-nil, is serialized as the JSON request body.
	In interface{}

	// Body and ContentType provide a raw request body instead of
	// In.
	Body        io.Reader
	ContentType string

	// Accept overrides the Accept: header.
	Accept string

	// Authorization is sent instead of the session token, for
	// initSession.
	Authorization string
}

// expand builds the absolute URL for an endpoint template.
func (c *Client) expand(template string, vars map[string]interface{}) (*url.URL, error) {
	tmpl, err := uritemplates.Parse(template)
	if err != nil {
		return nil, err
	}
	if vars == nil {
		vars = map[string]interface{}{}
	}
	expanded, err := tmpl.Expand(vars)
	if err != nil {
		return nil, err
	}
	return c.base.Parse(expanded)
}

// response is what callers need of a response once its body has been
// consumed.
type response struct {
	StatusCode int
	Header     http.Header
}

// do performs req.  If out is non-nil and the response is a success
// with a body, the body is decoded into out, which must be of pointer
// type, or copied into it if it is an io.Writer.  The response is
// returned whenever one arrived, including alongside an error.
func (c *Client) do(ctx context.Context, req request, out interface{}) (result response, err error) {
	u, err := c.expand(req.Endpoint, req.Vars)
	if err != nil {
		return result, err
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	contentType := glpidata.JSONMediaType
	if req.In != nil {
		encoded, err := glpidata.Encode(req.In)
		if err != nil {
			return result, err
		}
		body = bytes.NewReader(encoded)
	} else if req.Body != nil {
		body = req.Body
		contentType = req.ContentType
	}

	httpReq, err := http.NewRequest(req.Method, u.String(), body)
	if err != nil {
		return result, err
	}
	httpReq = httpReq.WithContext(ctx)
	httpReq.Header.Set("Content-Type", contentType)
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if c.appToken != "" {
		httpReq.Header.Set("App-Token", c.appToken)
	}
	session := c.sessionID()
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	} else {
		token := c.sessionToken()
		if token == "" {
			return result, ErrSessionClosed
		}
		httpReq.Header.Set("Session-Token", token)
	}

	log := c.log.WithFields(logrus.Fields{
		"method":   req.Method,
		"endpoint": req.Endpoint,
		"url":      u.Path,
		"session":  session,
	})
	start := c.clock.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := c.clock.Now().Sub(start)
	if err != nil {
		c.metrics.observe(req.Endpoint, req.Method, 0, elapsed)
		log.WithError(err).Debug("GLPI request failed")
		return result, ErrCommunication{Err: err}
	}
	defer func() {
		cerr := resp.Body.Close()
		if err == nil && cerr != nil {
			err = ErrCommunication{Err: cerr}
		}
	}()
	result = response{StatusCode: resp.StatusCode, Header: resp.Header}
	c.metrics.observe(req.Endpoint, req.Method, resp.StatusCode, elapsed)
	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": elapsed,
	}).Debug("GLPI request")

	if err = checkHTTPStatus(resp); err != nil {
		return result, err
	}

	if out == nil {
		return result, nil
	}
	if w, isWriter := out.(io.Writer); isWriter {
		if _, err = io.Copy(w, resp.Body); err != nil {
			return result, ErrCommunication{Err: err}
		}
		return result, nil
	}
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return result, ErrCommunication{Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}
	err = glpidata.Decode(resp.Header.Get("Content-Type"), bytes.NewReader(data), out)
	return result, err
}

// get is a shortcut for a GET request decoding into out.
func (c *Client) get(ctx context.Context, endpoint string, vars map[string]interface{}, query url.Values, out interface{}) error {
	_, err := c.do(ctx, request{
		Method:   http.MethodGet,
		Endpoint: endpoint,
		Vars:     vars,
		Query:    query,
	}, out)
	return err
}

// checkHTTPStatus examines an HTTP response and returns an error if
// it is not successful.
func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Always collect the entire body; we will need it as a fallback
	// and can only read it once.
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return ErrCommunication{Err: err}
	}

	if doc, ok := glpidata.ParseErrorDocument(body); ok {
		return ErrGLPI{
			StatusCode: resp.StatusCode,
			Key:        doc.Key,
			Message:    doc.Message,
		}
	}
	return ErrorHTTP{Response: resp, Body: strings.TrimSpace(string(body))}
}

// multiStatus unwraps a 207 Multi-Status body, which GLPI sends as a
// two-element list whose second element holds the per-item results.
func multiStatus(status int, body interface{}) interface{} {
	if status != http.StatusMultiStatus {
		return body
	}
	if list, ok := body.([]interface{}); ok && len(list) > 1 {
		return list[1]
	}
	return body
}
