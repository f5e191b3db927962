// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package config

import (
	"github.com/diffeo/go-glpi/glpi"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

const sampleYaml = `
url: https://glpi.example.com/apirest.php
app_token: apptoken
user_token: usertoken
insecure: true
timeout: 30s
field_cache_size: 8
`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/glpi.yaml", []byte(sampleYaml), 0600))

	c, err := Load(fs, "/etc/glpi.yaml")
	require.NoError(t, err)
	assert.Equal(t, Config{
		URL:            "https://glpi.example.com/apirest.php",
		AppToken:       "apptoken",
		UserToken:      "usertoken",
		Insecure:       true,
		Timeout:        30 * time.Second,
		FieldCacheSize: 8,
	}, *c)
	assert.NoError(t, c.Validate())

	opts := c.ClientOptions()
	assert.Equal(t, glpi.UserToken("usertoken"), opts.Auth)
	assert.Equal(t, "apptoken", opts.AppToken)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.True(t, opts.Insecure)
	assert.Equal(t, 8, opts.FieldCacheSize)
}

func TestLoadMissing(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Load(fs, "/etc/glpi.yaml")
	assert.Error(t, err)

	c, err := Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, Config{}, *c)
}

func TestLoadDefaultPath(t *testing.T) {
	path, err := homedir.Expand(DefaultPath)
	require.NoError(t, err)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, path, []byte("url: http://localhost/apirest.php\n"), 0600))

	c, err := Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/apirest.php", c.URL)
}

func TestLoadBadKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/glpi.yaml", []byte("uri: nope\n"), 0600))
	_, err := Load(fs, "/glpi.yaml")
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvURL:      "https://other.example.com/apirest.php",
		EnvUsername: "tech",
		EnvPassword: "tech",
	}
	c := Config{URL: "https://glpi.example.com/apirest.php", UserToken: "usertoken"}
	c.applyEnv(func(name string) string { return env[name] })
	assert.Equal(t, Config{
		URL:      "https://other.example.com/apirest.php",
		Username: "tech",
		Password: "tech",
	}, c)
	assert.Equal(t, glpi.BasicAuth{Username: "tech", Password: "tech"}, c.Auth())
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		Name   string
		Config Config
		Valid  bool
	}{
		{"token", Config{URL: "https://glpi/apirest.php", UserToken: "t"}, true},
		{"basic", Config{URL: "http://glpi/apirest.php", Username: "u", Password: "p"}, true},
		{"no url", Config{UserToken: "t"}, false},
		{"relative url", Config{URL: "glpi/apirest.php", UserToken: "t"}, false},
		{"ftp url", Config{URL: "ftp://glpi/apirest.php", UserToken: "t"}, false},
		{"no auth", Config{URL: "https://glpi/apirest.php"}, false},
		{"both auth", Config{URL: "https://glpi/apirest.php", UserToken: "t", Username: "u", Password: "p"}, false},
		{"no password", Config{URL: "https://glpi/apirest.php", Username: "u"}, false},
		{"negative timeout", Config{URL: "https://glpi/apirest.php", UserToken: "t", Timeout: -time.Second}, false},
	} {
		t.Run(test.Name, func(t *testing.T) {
			err := test.Config.Validate()
			if test.Valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSetAuth(t *testing.T) {
	c := Config{UserToken: "old"}
	c.SetAuth(Auth{Method: AuthBasic, Username: "u", Password: "p"})
	assert.Equal(t, Config{Username: "u", Password: "p"}, c)
	c.SetAuth(Auth{Method: AuthUserToken, Token: "new"})
	assert.Equal(t, Config{UserToken: "new"}, c)
}

func TestRedacted(t *testing.T) {
	c := Config{URL: "https://glpi/apirest.php", AppToken: "a", Username: "u", Password: "p"}
	r := c.Redacted()
	assert.Equal(t, "********", r.AppToken)
	assert.Equal(t, "********", r.Password)
	assert.Empty(t, r.UserToken)
	assert.Equal(t, "u", r.Username)
	assert.Equal(t, "p", c.Password)
}

func TestAuthFlag(t *testing.T) {
	var a Auth
	assert.False(t, a.IsSet())

	if assert.NoError(t, a.Set("user_token:abc")) {
		assert.Equal(t, Auth{Method: AuthUserToken, Token: "abc"}, a)
		assert.Equal(t, "user_token", a.String())
	}
	if assert.NoError(t, a.Set("basic:glpi:pa:ss")) {
		assert.Equal(t, Auth{Method: AuthBasic, Username: "glpi", Password: "pa:ss"}, a)
		assert.Equal(t, "basic:glpi", a.String())
	}
	assert.Error(t, a.Set("user_token"))
	assert.Error(t, a.Set("user_token:"))
	assert.Error(t, a.Set("basic:nopassword"))
	assert.Error(t, a.Set("kerberos:x"))
}
