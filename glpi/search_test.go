// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"context"
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func countRequests(f *fixture, suffix string) int {
	n := 0
	for _, req := range f.Server.Requests() {
		if strings.HasSuffix(req.Path, suffix) {
			n++
		}
	}
	return n
}

func TestFieldID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.Connect(t)

	id, err := c.FieldID(ctx, "Computer", "name", false)
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	id, err = c.FieldID(ctx, "Computer", "Entity.completename", false)
	require.NoError(t, err)
	assert.Equal(t, 80, id)

	id, err = c.FieldID(ctx, "Computer", "Computer.serial", false)
	require.NoError(t, err)
	assert.Equal(t, 5, id)

	uid, err := c.FieldUID(ctx, "Computer", 80, false)
	require.NoError(t, err)
	assert.Equal(t, "Entity.completename", uid)

	assert.Equal(t, 1, countRequests(f, "/listSearchOptions/Computer"))

	_, err = c.FieldID(ctx, "Computer", "name", true)
	require.NoError(t, err)
	assert.Equal(t, 2, countRequests(f, "/listSearchOptions/Computer"))

	_, err = c.FieldID(ctx, "Computer", "flux_capacitor", false)
	assert.Equal(t, ErrNoSuchField{Itemtype: "Computer", Field: "flux_capacitor"}, err)
	_, err = c.FieldUID(ctx, "Computer", 9999, false)
	assert.IsType(t, ErrNoSuchField{}, err)
	assert.Equal(t, 2, countRequests(f, "/listSearchOptions/Computer"))
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.Connect(t)
	addComputers(t, c, "pc-alpha", "pc-beta", "laptop-gamma")

	q := glpidata.SearchQuery{
		Criteria: []glpidata.Criterion{
			{Field: "name", SearchType: glpidata.SearchContains, Value: "pc-"},
		},
		ForceDisplay: []string{"serial", "80"},
	}
	result, err := c.Search(ctx, "Computer", q)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "0-1/2", result.ContentRange)
	if assert.Len(t, result.Data, 2) {
		row := result.Data[0]
		assert.Equal(t, "pc-alpha", row.String("1"))
		assert.Equal(t, "SN-pc-alpha", row.String("5"))
		assert.Equal(t, "Root entity", row.String("80"))
	}

	// The query was not modified by uid resolution
	assert.Equal(t, "name", q.Criteria[0].Field)
	assert.Equal(t, []string{"serial", "80"}, q.ForceDisplay)

	query := f.Server.Requests()[len(f.Server.Requests())-1].Query
	assert.Equal(t, "1", query.Get("criteria[0][field]"))
	assert.Equal(t, "5", query.Get("forcedisplay[0]"))
}

func TestSearchNested(t *testing.T) {
	ctx := context.Background()
	c := newFixture(t).Connect(t)
	addComputers(t, c, "pc-alpha", "pc-beta", "laptop-gamma")

	q := glpidata.SearchQuery{
		Criteria: []glpidata.Criterion{
			{Field: "name", SearchType: glpidata.SearchContains, Value: "^laptop"},
			{
				Link: glpidata.LinkOr,
				Criteria: []glpidata.Criterion{
					{Field: "name", SearchType: glpidata.SearchContains, Value: "pc"},
					{Link: glpidata.LinkAndNot, Field: "serial", SearchType: glpidata.SearchEquals, Value: "SN-pc-alpha"},
				},
			},
		},
		Sort:  "name",
		Order: "DESC",
	}
	rows, err := c.SearchRows(ctx, "Computer", q)
	require.NoError(t, err)
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.String("1")
	}
	assert.Equal(t, []string{"pc-beta", "laptop-gamma"}, names)
}

func TestSearchEmpty(t *testing.T) {
	ctx := context.Background()
	c := newFixture(t).Connect(t)
	addComputers(t, c, "pc-alpha")

	result, err := c.Search(ctx, "Computer", glpidata.SearchQuery{
		Criteria: []glpidata.Criterion{
			{Field: "1", SearchType: glpidata.SearchEquals, Value: "nothing"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalCount)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
}

func TestSearchRange(t *testing.T) {
	ctx := context.Background()
	c := newFixture(t).Connect(t)
	addComputers(t, c, "pc-alpha", "pc-beta", "pc-gamma")

	result, err := c.Search(ctx, "Computer", glpidata.SearchQuery{Range: "1-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, "1-1/3", result.ContentRange)
	if assert.Len(t, result.Data, 1) {
		assert.Equal(t, "pc-beta", result.Data[0].String("1"))
	}
}

func TestSearchUnknownField(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.Connect(t)

	_, err := c.Search(ctx, "Computer", glpidata.SearchQuery{
		Criteria: []glpidata.Criterion{{Field: "warp_drive", Value: "x"}},
	})
	var fieldErr ErrNoSuchField
	if assert.ErrorAs(t, err, &fieldErr) {
		assert.Equal(t, "warp_drive", fieldErr.Field)
	}
	assert.Equal(t, 0, countRequests(f, "/search/Computer"))
}
