// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package config

import (
	"errors"
	"strings"
)

// Authentication methods.
const (
	AuthUserToken = "user_token"
	AuthBasic     = "basic"
)

// Auth describes user-visible credentials on a command line.  This
// implements the flag.Value interface, and so a typical use is
//
//	func main() {
//	    auth := config.Auth{}
//	    flag.Var(&auth, "auth", "user_token:TOKEN or basic:USER:PASSWORD")
//	    flag.Parse()
//	    cfg.SetAuth(auth)
//	}
type Auth struct {
	// Method is AuthUserToken or AuthBasic, or empty if no
	// credentials were given.
	Method string

	// Token is the user token for AuthUserToken.
	Token string

	// Username and Password are the login for AuthBasic.
	Username string
	Password string
}

// IsSet returns true if any credentials were given.
func (a *Auth) IsSet() bool {
	return a.Method != ""
}

// String renders the credentials without their secret parts.
func (a *Auth) String() string {
	switch a.Method {
	case AuthBasic:
		return AuthBasic + ":" + a.Username
	default:
		return a.Method
	}
}

// Set parses a string into an existing credentials description.  The
// string should be of the form "user_token:TOKEN" or
// "basic:USER:PASSWORD"; the password may itself contain colons.
//
// This is part of the flag.Value interface.
func (a *Auth) Set(param string) error {
	parts := strings.SplitN(param, ":", 2)
	if len(parts) < 2 || parts[1] == "" {
		return errors.New("credentials must be user_token:TOKEN or basic:USER:PASSWORD")
	}
	switch parts[0] {
	case AuthUserToken:
		*a = Auth{Method: AuthUserToken, Token: parts[1]}
	case AuthBasic:
		login := strings.SplitN(parts[1], ":", 2)
		if len(login) < 2 || login[0] == "" {
			return errors.New("basic credentials must be basic:USER:PASSWORD")
		}
		*a = Auth{Method: AuthBasic, Username: login[0], Password: login[1]}
	default:
		return errors.New("unknown authentication method " + parts[0])
	}
	return nil
}
