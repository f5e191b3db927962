// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"context"
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	c := newFixture(t).Connect(t)

	profiles, err := c.GetMyProfiles(ctx)
	require.NoError(t, err)
	if assert.Len(t, profiles, 2) {
		assert.Equal(t, 4, profiles[0].ID)
		assert.Equal(t, "Super-Admin", profiles[0].Name)
		if assert.Len(t, profiles[0].Entities, 1) {
			assert.Equal(t, 0, profiles[0].Entities[0].ID)
			assert.True(t, profiles[0].Entities[0].IsRecursive)
		}
	}

	active, err := c.GetActiveProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Super-Admin", active.String("name"))

	require.NoError(t, c.SetActiveProfile(ctx, 1))
	active, err = c.GetActiveProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Self-Service", active.String("name"))

	err = c.SetActiveProfile(ctx, 99)
	assert.True(t, IsNotFound(err))
}

func TestEntities(t *testing.T) {
	ctx := context.Background()
	c := newFixture(t).Connect(t)

	entities, err := c.GetMyEntities(ctx, false)
	require.NoError(t, err)
	if assert.Len(t, entities, 1) {
		assert.Equal(t, "Root entity", entities[0].Name)
	}

	entities, err = c.GetMyEntities(ctx, true)
	require.NoError(t, err)
	if assert.Len(t, entities, 2) {
		assert.Equal(t, 1, entities[1].ID)
		assert.Equal(t, "Root entity > Child", entities[1].Name)
	}

	require.NoError(t, c.SetActiveEntities(ctx, 1, false))
	active, err := c.GetActiveEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active.ID)
	assert.False(t, active.Recursive)
	assert.Equal(t, []glpidata.EntityRef{{ID: 1}}, active.ActiveEntities)

	require.NoError(t, c.SetActiveEntities(ctx, AllEntities, false))
	active, err = c.GetActiveEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, active.ID)
	assert.True(t, active.Recursive)
	assert.Len(t, active.ActiveEntities, 2)

	err = c.SetActiveEntities(ctx, 42, true)
	assert.True(t, IsNotFound(err))
}

func TestFullSessionAndConfig(t *testing.T) {
	ctx := context.Background()
	c := newFixture(t).Connect(t)

	session, err := c.GetFullSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, testLogin, session.String("glpiname"))

	config, err := c.GetConfig(ctx)
	require.NoError(t, err)
	cfg, ok := config["cfg_glpi"].(map[string]interface{})
	if assert.True(t, ok) {
		assert.Equal(t, "9.5.7", glpidata.Item(cfg).String("version"))
	}
}

func TestListSearchOptions(t *testing.T) {
	ctx := context.Background()
	c := newFixture(t).Connect(t)

	options, err := c.ListSearchOptions(ctx, "Computer", false)
	require.NoError(t, err)
	assert.Equal(t, "Characteristics", options["common"].Name)
	assert.Equal(t, "Computer.name", options["1"].UID)
	assert.Equal(t, "Computer.Entity.completename", options["80"].UID)
	assert.Equal(t, "glpi_entities", options["80"].Table)
	assert.Contains(t, options["1"].AvailableSearchTypes, glpidata.SearchContains)

	raw, err := c.ListSearchOptions(ctx, "Computer", true)
	require.NoError(t, err)
	assert.Empty(t, raw["1"].UID)
	assert.Equal(t, "name", raw["1"].Field)

	_, err = c.ListSearchOptions(ctx, "NoSuchThing", false)
	assert.Equal(t, 400, StatusCode(err))
}
