// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"context"
	"github.com/diffeo/go-glpi/glpidata"
	"net/http"
	"net/url"
)

// GetItem returns the fields of one object.  params may carry any of
// the endpoint's options, e.g. "expand_dropdowns" or "with_logs".  If
// the object does not exist, returns nil with no error.
func (c *Client) GetItem(ctx context.Context, itemtype string, id int, params glpidata.Params) (glpidata.Item, error) {
	var item glpidata.Item
	err := c.get(ctx, "{itemtype}/{id}", itemVars(itemtype, id), params.Values(), &item)
	if err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// GetAllItems returns a page of objects of an itemtype.  params may
// carry "range", "sort", "order", "is_deleted", "searchText" and the
// other options of the endpoint.
func (c *Client) GetAllItems(ctx context.Context, itemtype string, params glpidata.Params) ([]glpidata.Item, error) {
	var body interface{}
	err := c.get(ctx, "{itemtype}", map[string]interface{}{"itemtype": itemtype}, params.Values(), &body)
	if err != nil {
		return nil, err
	}
	return glpidata.ToItems(body), nil
}

// GetSubItems returns the objects of subItemtype attached to one
// object, e.g. the "Log" entries of a "Computer".
func (c *Client) GetSubItems(ctx context.Context, itemtype string, id int, subItemtype string, params glpidata.Params) ([]glpidata.Item, error) {
	vars := itemVars(itemtype, id)
	vars["subtype"] = subItemtype
	var body interface{}
	err := c.get(ctx, "{itemtype}/{id}/{subtype}", vars, params.Values(), &body)
	if err != nil {
		return nil, err
	}
	return glpidata.ToItems(body), nil
}

// GetMultipleItems fetches several objects, of any itemtypes, in one
// request.  Results are in the same order as refs.
func (c *Client) GetMultipleItems(ctx context.Context, params glpidata.Params, refs ...glpidata.ItemRef) ([]glpidata.Item, error) {
	query := glpidata.ItemRefValues(refs)
	params.AddTo(query)
	var body interface{}
	if err := c.get(ctx, "getMultipleItems", nil, query, &body); err != nil {
		return nil, err
	}
	return glpidata.ToItems(body), nil
}

// Add creates one or more objects.  The result has one entry per
// object, normally with "id" and "message" keys.
func (c *Client) Add(ctx context.Context, itemtype string, items ...glpidata.Item) ([]glpidata.Item, error) {
	return c.modify(ctx, http.MethodPost, itemtype, nil, items)
}

// Update changes one or more existing objects.  Every item needs an
// "id" key.  The result has one entry per object, e.g.
// {"5": true, "message": ""}.
func (c *Client) Update(ctx context.Context, itemtype string, items ...glpidata.Item) ([]glpidata.Item, error) {
	return c.modify(ctx, http.MethodPut, itemtype, nil, items)
}

// Delete deletes one or more objects, each identified by an "id" key.
// By default objects go to the trash; pass {"force_purge": true} in
// params to purge them, and {"history": false} to skip the history
// entry.
func (c *Client) Delete(ctx context.Context, itemtype string, params glpidata.Params, items ...glpidata.Item) ([]glpidata.Item, error) {
	return c.modify(ctx, http.MethodDelete, itemtype, params.Values(), items)
}

// modify sends a batch of items as {"input": [...]}.  A 207
// Multi-Status response is unwrapped to its per-item results.
func (c *Client) modify(ctx context.Context, method, itemtype string, query url.Values, items []glpidata.Item) ([]glpidata.Item, error) {
	input := items
	if input == nil {
		input = []glpidata.Item{}
	}
	var body interface{}
	resp, err := c.do(ctx, request{
		Method:   method,
		Endpoint: "{itemtype}",
		Vars:     map[string]interface{}{"itemtype": itemtype},
		Query:    query,
		In:       map[string]interface{}{"input": input},
	}, &body)
	if err != nil {
		return nil, err
	}
	return glpidata.ToItems(multiStatus(resp.StatusCode, body)), nil
}
