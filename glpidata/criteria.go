// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpidata

import (
	"fmt"
	"net/url"
	"regexp"
)

// Logical links between sibling criteria.
const (
	LinkAnd    = "AND"
	LinkOr     = "OR"
	LinkAndNot = "AND NOT"
	LinkOrNot  = "OR NOT"
)

// Common search types.  The set a field accepts is listed in its
// SearchOption.AvailableSearchTypes.
const (
	SearchContains    = "contains"
	SearchNotContains = "notcontains"
	SearchEquals      = "equals"
	SearchNotEquals   = "notequals"
	SearchLessThan    = "lessthan"
	SearchMoreThan    = "morethan"
	SearchUnder       = "under"
	SearchNotUnder    = "notunder"
)

// Criterion is one node of a search criteria tree.
type Criterion struct {
	// Link joins this criterion to the previous sibling.  It is
	// ignored by the server on the first criterion of a list.
	Link string

	// Itemtype, if set, makes this a meta criterion that searches
	// a linked itemtype.  Field then refers to that itemtype's
	// search options.
	Itemtype string

	// Field is either a numeric search option id ("1") or a
	// search option uid relative to the itemtype ("name",
	// "Entity.completename").
	Field string

	// SearchType is the comparison operator, e.g. "contains".
	SearchType string

	// Value is the value to compare against.
	Value string

	// Criteria holds a nested group.  A group usually has only a
	// Link and Criteria.
	Criteria []Criterion
}

// Clone returns a deep copy of c.
func (c Criterion) Clone() Criterion {
	c.Criteria = CloneCriteria(c.Criteria)
	return c
}

// CloneCriteria returns a deep copy of a criteria list.  nil stays nil.
func CloneCriteria(criteria []Criterion) []Criterion {
	if criteria == nil {
		return nil
	}
	out := make([]Criterion, len(criteria))
	for i, c := range criteria {
		out[i] = c.Clone()
	}
	return out
}

var fieldIDPattern = regexp.MustCompile(`^\d+$`)

// IsFieldID returns true if field is a numeric search option id
// rather than a uid.
func IsFieldID(field string) bool {
	return fieldIDPattern.MatchString(field)
}

// FieldResolver maps a field uid of an itemtype to its numeric search
// option id.  It is only called for non-numeric fields.
type FieldResolver func(itemtype, field string) (string, error)

// SearchQuery is the full set of parameters to the search endpoint.
type SearchQuery struct {
	// Criteria filters the search.
	Criteria []Criterion

	// MetaCriteria filters on linked itemtypes; every entry needs
	// an Itemtype.  Current GLPI versions also accept these as
	// Criteria entries with Itemtype set.
	MetaCriteria []Criterion

	// ForceDisplay lists the columns to return, as ids or uids.
	ForceDisplay []string

	// Sort names the column to sort on, as an id or uid.
	Sort string

	// Order is "ASC" or "DESC".
	Order string

	// Range is the page to return, e.g. "0-49".
	Range string

	// Params holds any further parameters, e.g. "rawdata",
	// "withindexes", "uid_cols" or "giveItems".
	Params Params
}

// Values produces the query-string encoding of q for searching
// itemtype.  Non-numeric fields are passed through resolve; if
// resolve is nil they are sent as-is.
//
// q is never modified: field resolution happens on a copy of the
// criteria tree.  Calling Values twice with the same resolver
// produces identical output.
func (q SearchQuery) Values(itemtype string, resolve FieldResolver) (url.Values, error) {
	values := url.Values{}
	q.Params.AddTo(values)

	field := func(itemtype, field string) (string, error) {
		if field == "" || IsFieldID(field) || resolve == nil {
			return field, nil
		}
		return resolve(itemtype, field)
	}

	criteria := CloneCriteria(q.Criteria)
	if err := resolveCriteria(criteria, itemtype, field); err != nil {
		return nil, err
	}
	flattenCriteria(values, "criteria", criteria, true)

	meta := CloneCriteria(q.MetaCriteria)
	if err := resolveCriteria(meta, itemtype, field); err != nil {
		return nil, err
	}
	flattenCriteria(values, "metacriteria", meta, false)

	for i, f := range q.ForceDisplay {
		id, err := field(itemtype, f)
		if err != nil {
			return nil, err
		}
		values.Set(fmt.Sprintf("forcedisplay[%d]", i), id)
	}
	if q.Sort != "" {
		id, err := field(itemtype, q.Sort)
		if err != nil {
			return nil, err
		}
		values.Set("sort", id)
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	if q.Range != "" {
		values.Set("range", q.Range)
	}
	return values, nil
}

// EncodeCriteria returns the flattened query-string form of a
// criteria list under the top-level name "criteria", without any field
// resolution.
func EncodeCriteria(criteria []Criterion) url.Values {
	values := url.Values{}
	flattenCriteria(values, "criteria", criteria, true)
	return values
}

// resolveCriteria rewrites fields to ids in place.  It must only be
// called on a copy owned by the caller.
func resolveCriteria(criteria []Criterion, itemtype string, resolve FieldResolver) error {
	for i := range criteria {
		c := &criteria[i]
		scope := itemtype
		if c.Itemtype != "" {
			scope = c.Itemtype
		}
		id, err := resolve(scope, c.Field)
		if err != nil {
			return err
		}
		c.Field = id
		if err := resolveCriteria(c.Criteria, scope, resolve); err != nil {
			return err
		}
	}
	return nil
}

func flattenCriteria(values url.Values, prefix string, criteria []Criterion, markMeta bool) {
	for i, c := range criteria {
		key := fmt.Sprintf("%s[%d]", prefix, i)
		if c.Link != "" {
			values.Set(key+"[link]", c.Link)
		}
		if c.Itemtype != "" {
			values.Set(key+"[itemtype]", c.Itemtype)
			if markMeta {
				values.Set(key+"[meta]", "1")
			}
		}
		if len(c.Criteria) > 0 {
			flattenCriteria(values, key+"[criteria]", c.Criteria, markMeta)
		}
		if c.Field != "" {
			values.Set(key+"[field]", c.Field)
		}
		if c.SearchType != "" {
			values.Set(key+"[searchtype]", c.SearchType)
		}
		if c.Field != "" || c.Value != "" {
			values.Set(key+"[value]", c.Value)
		}
	}
}
