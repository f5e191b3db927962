// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpidata

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// Params holds additional query parameters for an endpoint, such as
// "expand_dropdowns", "with_logs", "range" or "force_purge".  Values
// are encoded by AddTo.
type Params map[string]interface{}

// Values returns the query-string encoding of p.
func (p Params) Values() url.Values {
	values := url.Values{}
	p.AddTo(values)
	return values
}

// AddTo adds the encoding of every parameter in p to values.
//
// Booleans are encoded as "true" and "false".  Slices are encoded as
// name[0], name[1], ...; maps as name[key].  nil values are skipped.
func (p Params) AddTo(values url.Values) {
	for key, value := range p {
		addParam(values, key, value)
	}
}

func addParam(values url.Values, key string, value interface{}) {
	switch v := value.(type) {
	case nil:
	case bool:
		values.Set(key, strconv.FormatBool(v))
	case string:
		values.Set(key, v)
	case int:
		values.Set(key, strconv.Itoa(v))
	case int64:
		values.Set(key, strconv.FormatInt(v, 10))
	case uint64:
		values.Set(key, strconv.FormatUint(v, 10))
	case float64:
		values.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
	case []string:
		for i, s := range v {
			values.Set(fmt.Sprintf("%s[%d]", key, i), s)
		}
	case []int:
		for i, n := range v {
			values.Set(fmt.Sprintf("%s[%d]", key, i), strconv.Itoa(n))
		}
	case []interface{}:
		for i, elem := range v {
			addParam(values, fmt.Sprintf("%s[%d]", key, i), elem)
		}
	case map[string]string:
		for k, s := range v {
			values.Set(fmt.Sprintf("%s[%s]", key, k), s)
		}
	case map[string]interface{}:
		for k, elem := range v {
			addParam(values, fmt.Sprintf("%s[%s]", key, k), elem)
		}
	case Params:
		addParam(values, key, map[string]interface{}(v))
	case fmt.Stringer:
		values.Set(key, v.String())
	default:
		values.Set(key, fmt.Sprint(v))
	}
}

// ItemRefValues encodes a list of item references in the
// items[i][itemtype], items[i][items_id] form getMultipleItems takes.
func ItemRefValues(refs []ItemRef) url.Values {
	values := url.Values{}
	for i, ref := range refs {
		values.Set(fmt.Sprintf("items[%d][itemtype]", i), ref.Itemtype)
		values.Set(fmt.Sprintf("items[%d][items_id]", i), strconv.Itoa(ref.ID))
	}
	return values
}

// SortedKeys returns the keys of values in sorted order.  This is
// mostly useful to produce stable diagnostics.
func SortedKeys(values url.Values) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
