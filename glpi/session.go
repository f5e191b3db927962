// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

// This file covers the session-introspection endpoints: profiles,
// entities, the PHP session and the GLPI configuration.

import (
	"context"
	"github.com/diffeo/go-glpi/glpidata"
	"net/http"
	"net/url"
	"strconv"
)

// GetMyProfiles returns all the profiles associated with the logged-in
// user.
func (c *Client) GetMyProfiles(ctx context.Context) ([]glpidata.Profile, error) {
	var resp struct {
		MyProfiles interface{} `json:"myprofiles"`
	}
	if err := c.get(ctx, "getMyProfiles", nil, nil, &resp); err != nil {
		return nil, err
	}
	profiles := []glpidata.Profile{}
	err := glpidata.DecodeWeak(resp.MyProfiles, &profiles)
	return profiles, err
}

// GetActiveProfile returns the full record of the current active
// profile.
func (c *Client) GetActiveProfile(ctx context.Context) (glpidata.Item, error) {
	var resp struct {
		ActiveProfile glpidata.Item `json:"active_profile"`
	}
	err := c.get(ctx, "getActiveProfile", nil, nil, &resp)
	return resp.ActiveProfile, err
}

// SetActiveProfile changes the active profile.  The profile must be
// one of the user's profiles, otherwise the server returns a not-found
// error.
func (c *Client) SetActiveProfile(ctx context.Context, profileID int) error {
	_, err := c.do(ctx, request{
		Method:   http.MethodPost,
		Endpoint: "changeActiveProfile",
		In:       map[string]interface{}{"profiles_id": profileID},
	}, nil)
	return err
}

// GetMyEntities returns all the entities the logged-in user can
// switch to with the current active profile.  If recursive is set,
// sub-entities of recursive assignments are listed too.
func (c *Client) GetMyEntities(ctx context.Context, recursive bool) ([]glpidata.Entity, error) {
	var query url.Values
	if recursive {
		query = glpidata.Params{"is_recursive": true}.Values()
	}
	var resp struct {
		MyEntities interface{} `json:"myentities"`
	}
	if err := c.get(ctx, "getMyEntities", nil, query, &resp); err != nil {
		return nil, err
	}
	entities := []glpidata.Entity{}
	err := glpidata.DecodeWeak(resp.MyEntities, &entities)
	return entities, err
}

// GetActiveEntities returns the entities currently visible to the
// session.
func (c *Client) GetActiveEntities(ctx context.Context) (*glpidata.ActiveEntity, error) {
	var resp struct {
		ActiveEntity interface{} `json:"active_entity"`
	}
	if err := c.get(ctx, "getActiveEntities", nil, nil, &resp); err != nil {
		return nil, err
	}
	active := &glpidata.ActiveEntity{}
	err := glpidata.DecodeWeak(resp.ActiveEntity, active)
	return active, err
}

// AllEntities may be passed to SetActiveEntities to activate every
// entity the profile can see.
const AllEntities = -1

// SetActiveEntities changes the active entity.  Pass AllEntities to
// select all of them.  recursive also activates sub-entities.
func (c *Client) SetActiveEntities(ctx context.Context, entityID int, recursive bool) error {
	var id interface{} = entityID
	if entityID == AllEntities {
		id = "all"
	}
	_, err := c.do(ctx, request{
		Method:   http.MethodPost,
		Endpoint: "changeActiveEntities",
		In: map[string]interface{}{
			"entities_id":  id,
			"is_recursive": recursive,
		},
	}, nil)
	return err
}

// GetFullSession returns the server-side PHP session.
func (c *Client) GetFullSession(ctx context.Context) (glpidata.Item, error) {
	var resp struct {
		Session glpidata.Item `json:"session"`
	}
	err := c.get(ctx, "getFullSession", nil, nil, &resp)
	return resp.Session, err
}

// GetConfig returns the server configuration ($CFG_GLPI and the
// client-visible parts of the main configuration).
func (c *Client) GetConfig(ctx context.Context) (glpidata.Item, error) {
	var resp glpidata.Item
	err := c.get(ctx, "getGlpiConfig", nil, nil, &resp)
	return resp, err
}

// ListSearchOptions returns the search options of an itemtype keyed by
// their (string) id.  raw asks for the options as the core defines
// them, before cleanup.
func (c *Client) ListSearchOptions(ctx context.Context, itemtype string, raw bool) (map[string]glpidata.SearchOption, error) {
	var query url.Values
	if raw {
		query = url.Values{"raw": {""}}
	}
	var resp map[string]interface{}
	err := c.get(ctx, "listSearchOptions/{itemtype}",
		map[string]interface{}{"itemtype": itemtype}, query, &resp)
	if err != nil {
		return nil, err
	}
	options := make(map[string]glpidata.SearchOption, len(resp))
	for id, v := range resp {
		var option glpidata.SearchOption
		if err := glpidata.DecodeWeak(v, &option); err != nil {
			return nil, err
		}
		options[id] = option
	}
	return options, nil
}

// itemVars builds the template variables of an item endpoint.
func itemVars(itemtype string, id int) map[string]interface{} {
	return map[string]interface{}{
		"itemtype": itemtype,
		"id":       strconv.Itoa(id),
	}
}
