// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"context"
	"github.com/diffeo/go-glpi/glpidata"
	"net/http"
)

// Search runs the GLPI search engine over an itemtype.  Fields in the
// query may be numeric search option ids or uids ("name",
// "Entity.completename"); uids are translated with FieldID().  The
// query itself is never modified.
//
// Rows are keyed by search option id, as strings, unless the query
// asks for "uid_cols".
func (c *Client) Search(ctx context.Context, itemtype string, q glpidata.SearchQuery) (*glpidata.SearchResult, error) {
	query, err := q.Values(itemtype, c.fieldResolver(ctx))
	if err != nil {
		return nil, err
	}

	var body interface{}
	resp, err := c.do(ctx, request{
		Method:   http.MethodGet,
		Endpoint: "search/{itemtype}",
		Vars:     map[string]interface{}{"itemtype": itemtype},
		Query:    query,
	}, &body)
	if err != nil {
		return nil, err
	}
	result, err := glpidata.DecodeSearchResult(body)
	if err != nil {
		return nil, err
	}
	result.ContentRange = resp.Header.Get("Content-Range")
	return result, nil
}

// SearchRows is a shortcut for Search() returning only the rows.
func (c *Client) SearchRows(ctx context.Context, itemtype string, q glpidata.SearchQuery) ([]glpidata.Item, error) {
	result, err := c.Search(ctx, itemtype, q)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}
