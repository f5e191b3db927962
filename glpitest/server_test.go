// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpitest

import (
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func TestParseBrackets(t *testing.T) {
	criteria := []glpidata.Criterion{
		{Field: "1", SearchType: "contains", Value: "pc"},
		{
			Link: glpidata.LinkOr,
			Criteria: []glpidata.Criterion{
				{Field: "5", SearchType: "equals", Value: "SN"},
				{Link: glpidata.LinkAndNot, Field: "80", SearchType: "contains", Value: "Child"},
			},
		},
	}
	// Add enough entries that string and numeric order differ
	for i := 0; i < 10; i++ {
		criteria = append(criteria, glpidata.Criterion{Link: glpidata.LinkAnd, Field: "2", SearchType: "morethan", Value: "0"})
	}
	values := glpidata.EncodeCriteria(criteria)
	assert.Equal(t, criteria, toCriteria(parseBrackets(values, "criteria")))
	assert.Nil(t, toCriteria(parseBrackets(url.Values{"other": {"x"}}, "criteria")))
}

func TestContains(t *testing.T) {
	for _, test := range []struct {
		Actual, Value string
		Match         bool
	}{
		{"pc-alpha", "alpha", true},
		{"pc-alpha", "ALPHA", true},
		{"pc-alpha", "^pc", true},
		{"pc-alpha", "^alpha", false},
		{"pc-alpha", "alpha$", true},
		{"pc-alpha", "^pc-alpha$", true},
		{"pc-alpha", "^pc$", false},
		{"", "NULL", true},
		{"pc-alpha", "NULL", false},
		{"pc-alpha", "", true},
	} {
		assert.Equal(t, test.Match, contains(test.Actual, test.Value),
			"%q contains %q", test.Actual, test.Value)
	}
}

func TestPage(t *testing.T) {
	start, end, header, err := page("", 3)
	if assert.NoError(t, err) {
		assert.Equal(t, 0, start)
		assert.Equal(t, 3, end)
		assert.Equal(t, "0-2/3", header)
		assert.Equal(t, http.StatusOK, pageStatus(start, end, 3))
	}

	start, end, header, err = page("1-1", 3)
	if assert.NoError(t, err) {
		assert.Equal(t, 1, start)
		assert.Equal(t, 2, end)
		assert.Equal(t, "1-1/3", header)
		assert.Equal(t, http.StatusPartialContent, pageStatus(start, end, 3))
	}

	_, _, _, err = page("5-9", 3)
	assert.Error(t, err)
	_, _, _, err = page("garbage", 3)
	assert.Error(t, err)
}

func get(t *testing.T, ts *httptest.Server, path string, header http.Header) (*http.Response, glpidata.ErrorDocument) {
	req, err := http.NewRequest(http.MethodGet, ts.URL+APIPath+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var doc []string
	_ = glpidata.Decode(resp.Header.Get("Content-Type"), resp.Body, &doc)
	var result glpidata.ErrorDocument
	if len(doc) == 2 {
		result = glpidata.ErrorDocument{Key: doc[0], Message: doc[1]}
	}
	return resp, result
}

func TestSessionErrors(t *testing.T) {
	s := New()
	s.AddUser(User{Login: "glpi", UserToken: "token"})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, doc := get(t, ts, "/getFullSession", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, glpidata.ErrorSessionTokenMissing, doc.Key)

	resp, doc = get(t, ts, "/getFullSession", http.Header{"Session-Token": {"bogus"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, glpidata.ErrorSessionTokenInvalid, doc.Key)

	resp, doc = get(t, ts, "/initSession", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, glpidata.ErrorLoginParameters, doc.Key)

	resp, _ = get(t, ts, "/initSession", http.Header{"Authorization": {"user_token token"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, s.SessionCount())
	assert.Len(t, s.Requests(), 4)
}

func TestPanicRecovery(t *testing.T) {
	s := New()
	handler := &endpoint{
		Server:    s,
		Anonymous: true,
		Handle: func(*context) (interface{}, error) {
			panic("kaboom")
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/apirest.php/anything", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	doc, ok := glpidata.ParseErrorDocument(rec.Body.Bytes())
	if assert.True(t, ok) {
		assert.Equal(t, "ERROR", doc.Key)
		assert.True(t, strings.Contains(doc.Message, "kaboom"))
	}
}

func TestRequestLog(t *testing.T) {
	s := New()
	s.RequestLogSize = 3
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for i := 0; i < 5; i++ {
		get(t, ts, "/getFullSession?n="+strconv.Itoa(i), nil)
	}
	assert.Equal(t, 5, s.RequestCount())
	requests := s.Requests()
	if assert.Len(t, requests, 3) {
		assert.Equal(t, "2", requests[0].Query.Get("n"))
		assert.Equal(t, "4", requests[2].Query.Get("n"))
	}

	s.RequestLogSize = 0
	get(t, ts, "/getFullSession", nil)
	assert.Equal(t, 6, s.RequestCount())
	assert.Empty(t, s.Requests())
}
