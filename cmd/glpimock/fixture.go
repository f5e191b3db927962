// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"errors"
	"fmt"
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/diffeo/go-glpi/glpitest"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
	"sort"
	"strings"
)

// userList collects repeated -user flags.  This implements the
// flag.Value interface.
type userList []glpitest.User

func (u *userList) String() string {
	logins := make([]string, len(*u))
	for i, user := range *u {
		logins[i] = user.Login
	}
	return strings.Join(logins, ",")
}

// Set parses login:password[:user_token].  Either the password or the
// token may be empty, but not both.
func (u *userList) Set(param string) error {
	parts := strings.SplitN(param, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return errors.New("user must be login:password[:user_token]")
	}
	user := glpitest.User{Login: parts[0], Password: parts[1]}
	if len(parts) == 3 {
		user.UserToken = parts[2]
	}
	if user.Password == "" && user.UserToken == "" {
		return errors.New("user needs a password or a user token")
	}
	*u = append(*u, user)
	return nil
}

// fixture is the initial content of the fake server:
//
//	app_token: f7g3csp8mgatg5ebc5elnazakw20i9fyev1qopya7
//	users:
//	  - login: glpi
//	    password: glpi
//	items:
//	  Computer:
//	    - name: pc-1
//	      serial: A-1
type fixture struct {
	AppToken string                              `yaml:"app_token"`
	Users    []fixtureUser                       `yaml:"users"`
	Items    map[string][]map[string]interface{} `yaml:"items"`
}

type fixtureUser struct {
	Login     string `yaml:"login"`
	Password  string `yaml:"password"`
	UserToken string `yaml:"user_token"`
}

func loadFixture(fs afero.Fs, filename string) (*fixture, error) {
	bytes, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, err
	}
	f := &fixture{}
	if err := yaml.UnmarshalStrict(bytes, f); err != nil {
		return nil, err
	}
	for itemtype, items := range f.Items {
		for i, item := range items {
			if item == nil {
				return nil, fmt.Errorf("%s entry %d is empty", itemtype, i)
			}
			for k, v := range item {
				item[k] = normalize(v)
			}
		}
	}
	return f, nil
}

// normalize converts the map[interface{}]interface{} values YAML
// produces for nested mappings into JSON-friendly maps.
func normalize(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, elem := range vv {
			m[fmt.Sprint(k)] = normalize(elem)
		}
		return m
	case []interface{}:
		for i, elem := range vv {
			vv[i] = normalize(elem)
		}
		return vv
	}
	return v
}

// Apply loads the fixture into a server.  Itemtypes are loaded in name
// order so ids are stable.
func (f *fixture) Apply(server *glpitest.Server) {
	if f.AppToken != "" {
		server.AppToken = f.AppToken
	}
	for _, user := range f.Users {
		server.AddUser(glpitest.User{
			Login:     user.Login,
			Password:  user.Password,
			UserToken: user.UserToken,
		})
	}
	itemtypes := make([]string, 0, len(f.Items))
	for itemtype := range f.Items {
		itemtypes = append(itemtypes, itemtype)
	}
	sort.Strings(itemtypes)
	for _, itemtype := range itemtypes {
		for _, item := range f.Items[itemtype] {
			server.AddItem(itemtype, glpidata.Item(item))
		}
	}
}
