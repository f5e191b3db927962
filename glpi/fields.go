// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"context"
	"github.com/diffeo/go-glpi/glpidata"
	"strconv"
	"strings"
)

// fetchFields builds the field map of an itemtype from its search
// options.  Options without a uid (section headers) are skipped.
func (c *Client) fetchFields(ctx context.Context, itemtype string) (*fieldMap, error) {
	options, err := c.ListSearchOptions(ctx, itemtype, false)
	if err != nil {
		return nil, err
	}
	fields := &fieldMap{
		Itemtype: itemtype,
		ByUID:    make(map[string]string),
		ByID:     make(map[string]string),
	}
	prefix := itemtype + "."
	for id, option := range options {
		if option.UID == "" {
			continue
		}
		uid := strings.TrimPrefix(option.UID, prefix)
		fields.ByUID[uid] = id
		fields.ByID[id] = uid
	}
	return fields, nil
}

func (c *Client) fieldMap(ctx context.Context, itemtype string, refresh bool) (*fieldMap, error) {
	if refresh {
		c.fields.Remove(itemtype)
	}
	return c.fields.Get(itemtype, func(itemtype string) (*fieldMap, error) {
		return c.fetchFields(ctx, itemtype)
	})
}

// FieldID returns the numeric search option id of an itemtype's field
// from its uid, e.g. "Entity.completename" for "Computer" gives 80.
// The uid may also be given fully qualified ("Computer.name").  Search
// options are fetched once per itemtype and cached; refresh forces
// them to be fetched again.
func (c *Client) FieldID(ctx context.Context, itemtype, uid string, refresh bool) (int, error) {
	fields, err := c.fieldMap(ctx, itemtype, refresh)
	if err != nil {
		return 0, err
	}
	id, present := fields.ByUID[strings.TrimPrefix(uid, itemtype+".")]
	if !present {
		return 0, ErrNoSuchField{Itemtype: itemtype, Field: uid}
	}
	return strconv.Atoi(id)
}

// FieldUID returns the uid of an itemtype's field from its numeric
// search option id.  This is the inverse of FieldID() and shares its
// cache.
func (c *Client) FieldUID(ctx context.Context, itemtype string, id int, refresh bool) (string, error) {
	fields, err := c.fieldMap(ctx, itemtype, refresh)
	if err != nil {
		return "", err
	}
	uid, present := fields.ByID[strconv.Itoa(id)]
	if !present {
		return "", ErrNoSuchField{Itemtype: itemtype, Field: strconv.Itoa(id)}
	}
	return uid, nil
}

// fieldResolver adapts FieldID() to the search query encoder.
func (c *Client) fieldResolver(ctx context.Context) glpidata.FieldResolver {
	return func(itemtype, field string) (string, error) {
		id, err := c.FieldID(ctx, itemtype, field, false)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(id), nil
	}
}
