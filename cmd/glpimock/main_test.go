// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"github.com/diffeo/go-glpi/glpitest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
)

const fixtureYAML = `
app_token: apptoken
users:
  - login: glpi
    password: glpi
  - login: api
    user_token: usertoken
items:
  Computer:
    - name: pc-1
      serial: A-1
      extra:
        nested: value
    - name: pc-2
  Printer:
    - name: lp-1
`

func TestUserList(t *testing.T) {
	var users userList
	require.NoError(t, users.Set("glpi:glpi"))
	require.NoError(t, users.Set("api::token:with:colons"))
	assert.Equal(t, userList{
		{Login: "glpi", Password: "glpi"},
		{Login: "api", UserToken: "token:with:colons"},
	}, users)
	assert.Equal(t, "glpi,api", users.String())

	assert.Error(t, users.Set("nobody"))
	assert.Error(t, users.Set(":pass"))
	assert.Error(t, users.Set("nobody:"))
	assert.Len(t, users, 2)
}

func TestLoadFixture(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fixture.yaml", []byte(fixtureYAML), 0644))
	f, err := loadFixture(fs, "/fixture.yaml")
	require.NoError(t, err)
	assert.Equal(t, "apptoken", f.AppToken)
	assert.Len(t, f.Users, 2)
	assert.Equal(t, map[string]interface{}{"nested": "value"}, f.Items["Computer"][0]["extra"])

	server := glpitest.New()
	f.Apply(server)
	assert.Equal(t, "apptoken", server.AppToken)
	assert.Equal(t, "pc-1", server.Item("Computer", 1).String("name"))
	assert.Equal(t, "pc-2", server.Item("Computer", 2).String("name"))
	assert.Equal(t, "lp-1", server.Item("Printer", 1).String("name"))
}

func TestLoadFixtureErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := loadFixture(fs, "/missing.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("unknown: 1\n"), 0644))
	_, err = loadFixture(fs, "/bad.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/empty.yaml", []byte("items:\n  Computer:\n    -\n"), 0644))
	_, err = loadFixture(fs, "/empty.yaml")
	assert.Error(t, err)
}

func TestRegisterMetrics(t *testing.T) {
	server := glpitest.New()
	server.RequestLogSize = 0
	server.AddUser(glpitest.User{Login: "glpi", Password: "glpi"})
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, registerMetrics(reg, server))
	assert.Error(t, registerMetrics(reg, server))

	ts := httptest.NewServer(newHandler(server, true))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+glpitest.APIPath+"/initSession", nil)
	require.NoError(t, err)
	req.SetBasicAuth("glpi", "glpi")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			if m.GetGauge() != nil {
				values[family.GetName()] = m.GetGauge().GetValue()
			} else if m.GetCounter() != nil {
				values[family.GetName()] = m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, map[string]float64{
		"diffeo_glpimock_sessions":       1,
		"diffeo_glpimock_requests_total": 1,
	}, values)
	assert.Empty(t, server.Requests())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := httptest.NewServer(newHandler(glpitest.New(), false))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}
