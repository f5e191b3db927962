// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package config loads GLPI client settings from a YAML file and the
// environment.  A typical file looks like
//
//	url: https://glpi.example.com/apirest.php
//	app_token: f7g3csp8mgatg5ebc5elnazakw20i9fyev1qopya7
//	user_token: q56hqkniwot8wntb3z1qarka5atf365taaa2uyjrn
//	timeout: 30s
//
// Settings in the environment (GLPI_URL, GLPI_APP_TOKEN,
// GLPI_USER_TOKEN, GLPI_USERNAME, GLPI_PASSWORD) override the file.
package config

import (
	"errors"
	"github.com/diffeo/go-glpi/glpi"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
	"net/url"
	"os"
	"time"
)

// DefaultPath is the configuration file used when none is named.
const DefaultPath = "~/.glpi.yaml"

// Config holds everything needed to connect to a GLPI server.
type Config struct {
	// URL is the API root, normally ending in "apirest.php".
	URL string `yaml:"url" json:"url" mapstructure:"url"`

	// AppToken is the API client token, if the server needs one.
	AppToken string `yaml:"app_token" json:"app_token" mapstructure:"app_token"`

	// UserToken is a personal API token.  Use either this or
	// Username and Password.
	UserToken string `yaml:"user_token" json:"user_token" mapstructure:"user_token"`

	Username string `yaml:"username" json:"username" mapstructure:"username"`
	Password string `yaml:"password" json:"password" mapstructure:"password"`

	// Insecure skips TLS certificate verification.
	Insecure bool `yaml:"insecure" json:"insecure" mapstructure:"insecure"`

	// Timeout bounds each request; zero means no limit.
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`

	// FieldCacheSize is the number of itemtypes whose search
	// options are cached.
	FieldCacheSize int `yaml:"field_cache_size" json:"field_cache_size" mapstructure:"field_cache_size"`
}

// Environment variables read by ApplyEnv.
const (
	EnvURL       = "GLPI_URL"
	EnvAppToken  = "GLPI_APP_TOKEN"
	EnvUserToken = "GLPI_USER_TOKEN"
	EnvUsername  = "GLPI_USERNAME"
	EnvPassword  = "GLPI_PASSWORD"
)

// Load reads a configuration file.  If path is empty, DefaultPath is
// used, and a missing default file yields an empty configuration
// rather than an error.  The result is not validated.
func Load(fs afero.Fs, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	exists, err := afero.Exists(fs, expanded)
	if err != nil {
		return nil, err
	}
	if !exists && !explicit {
		logrus.WithField("path", expanded).Debug("No GLPI configuration file")
		return &Config{}, nil
	}

	values, err := loadConfigYaml(fs, expanded)
	if err != nil {
		return nil, err
	}
	return FromMap(values)
}

func loadConfigYaml(fs afero.Fs, filename string) (map[string]interface{}, error) {
	var result map[string]interface{}
	bytes, err := afero.ReadFile(fs, filename)
	if err == nil {
		err = yaml.Unmarshal(bytes, &result)
	}
	return result, err
}

// FromMap builds a configuration from generic values, such as a
// decoded YAML document.  Numbers, booleans and strings are converted
// as needed; durations may be strings like "30s" or a number of
// nanoseconds.  Unknown keys are an error.
func FromMap(values map[string]interface{}) (*Config, error) {
	c := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           c,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(values); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv overrides settings from the process environment.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	for name, field := range map[string]*string{
		EnvURL:       &c.URL,
		EnvAppToken:  &c.AppToken,
		EnvUserToken: &c.UserToken,
		EnvUsername:  &c.Username,
		EnvPassword:  &c.Password,
	} {
		if v := getenv(name); v != "" {
			*field = v
		}
	}
	// A token from the environment replaces a login from the file,
	// and vice versa.
	if getenv(EnvUserToken) != "" && getenv(EnvUsername) == "" {
		c.Username, c.Password = "", ""
	}
	if getenv(EnvUsername) != "" && getenv(EnvUserToken) == "" {
		c.UserToken = ""
	}
}

// SetAuth replaces the credentials with those of a.
func (c *Config) SetAuth(a Auth) {
	c.UserToken, c.Username, c.Password = "", "", ""
	switch a.Method {
	case AuthUserToken:
		c.UserToken = a.Token
	case AuthBasic:
		c.Username, c.Password = a.Username, a.Password
	}
}

var errNotAbsolute = errors.New("must be an absolute http or https URL")

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errNotAbsolute
	}
	return nil
}

// Validate checks that c is complete enough to connect.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.UserToken,
			validation.When(c.Username != "",
				validation.Empty.Error("cannot be combined with username"))),
		validation.Field(&c.Username,
			validation.When(c.UserToken == "",
				validation.Required.Error("either user_token or username is required"))),
		validation.Field(&c.Password,
			validation.When(c.Username != "", validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.FieldCacheSize, validation.Min(0)),
	)
}

// Auth returns the client credentials c describes, or nil.
func (c Config) Auth() glpi.Auth {
	if c.UserToken != "" {
		return glpi.UserToken(c.UserToken)
	}
	if c.Username != "" {
		return glpi.BasicAuth{Username: c.Username, Password: c.Password}
	}
	return nil
}

// ClientOptions returns client options for c.  The logger and metrics
// are left for the caller to fill in.
func (c Config) ClientOptions() glpi.Options {
	return glpi.Options{
		AppToken:       c.AppToken,
		Auth:           c.Auth(),
		Timeout:        c.Timeout,
		Insecure:       c.Insecure,
		FieldCacheSize: c.FieldCacheSize,
	}
}

// Redacted returns a copy of c with secrets masked, suitable for
// logging or display.
func (c Config) Redacted() Config {
	for _, secret := range []*string{&c.AppToken, &c.UserToken, &c.Password} {
		if *secret != "" {
			*secret = "********"
		}
	}
	return c
}
