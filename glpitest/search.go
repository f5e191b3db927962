// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpitest

// This file implements listSearchOptions and a small subset of the
// GLPI search engine.

import (
	"github.com/diffeo/go-glpi/glpidata"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// searchOption describes a searchable field.  Field is the key of the
// stored object it reads.  If Joined is set, that object is instead
// the Joined object whose id is in ForeignKey.
type searchOption struct {
	ID         string
	Name       string
	Table      string
	Field      string
	UID        string
	DataType   string
	ForeignKey string
	Joined     string
}

var searchOptions = []searchOption{
	{ID: "1", Name: "Name", Field: "name", UID: "name", DataType: "itemlink"},
	{ID: "2", Name: "ID", Field: "id", UID: "id", DataType: "number"},
	{ID: "5", Name: "Serial number", Field: "serial", UID: "serial", DataType: "string"},
	{ID: "6", Name: "Inventory number", Field: "otherserial", UID: "otherserial", DataType: "string"},
	{ID: "16", Name: "Comments", Field: "comment", UID: "comment", DataType: "text"},
	{ID: "19", Name: "Last update", Field: "date_mod", UID: "date_mod", DataType: "datetime"},
	{
		ID: "80", Name: "Entity", Table: "glpi_entities", Field: "completename",
		UID: "Entity.completename", DataType: "dropdown",
		ForeignKey: "entities_id", Joined: "Entity",
	},
}

var searchTypes = []string{
	glpidata.SearchContains,
	glpidata.SearchNotContains,
	glpidata.SearchEquals,
	glpidata.SearchNotEquals,
	glpidata.SearchLessThan,
	glpidata.SearchMoreThan,
}

func findOption(id string) (searchOption, bool) {
	for _, opt := range searchOptions {
		if opt.ID == id {
			return opt, true
		}
	}
	return searchOption{}, false
}

func tableName(itemtype string) string {
	return "glpi_" + strings.ToLower(itemtype) + "s"
}

func (s *Server) listSearchOptions(ctx *context) (interface{}, error) {
	itemtype := ctx.Vars["itemtype"]
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkItemtype(itemtype); err != nil {
		return nil, err
	}
	_, raw := ctx.Request.URL.Query()["raw"]
	result := map[string]interface{}{
		"common": map[string]interface{}{"name": "Characteristics"},
	}
	for _, opt := range searchOptions {
		table := opt.Table
		if table == "" {
			table = tableName(itemtype)
		}
		entry := map[string]interface{}{
			"name":     opt.Name,
			"table":    table,
			"field":    opt.Field,
			"datatype": opt.DataType,
		}
		if !raw {
			entry["uid"] = itemtype + "." + opt.UID
			entry["available_searchtypes"] = searchTypes
		}
		result[opt.ID] = entry
	}
	return result, nil
}

var bracketPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)

// parseBrackets collects PHP-style parameters name[a][b]=v into nested
// maps.  Only the first value of each parameter is kept.
func parseBrackets(query url.Values, name string) map[string]interface{} {
	root := map[string]interface{}{}
	for _, key := range glpidata.SortedKeys(query) {
		if !strings.HasPrefix(key, name+"[") {
			continue
		}
		matches := bracketPattern.FindAllStringSubmatch(key[len(name):], -1)
		node := root
		for i, m := range matches {
			if i == len(matches)-1 {
				node[m[1]] = query.Get(key)
				break
			}
			child, ok := node[m[1]].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				node[m[1]] = child
			}
			node = child
		}
	}
	return root
}

// indexed returns the object-valued entries of m ordered by their
// numeric keys.
func indexed(m map[string]interface{}) []map[string]interface{} {
	keys := make([]int, 0, len(m))
	for k := range m {
		if n, err := strconv.Atoi(k); err == nil {
			keys = append(keys, n)
		}
	}
	sort.Ints(keys)
	var result []map[string]interface{}
	for _, k := range keys {
		if child, ok := m[strconv.Itoa(k)].(map[string]interface{}); ok {
			result = append(result, child)
		}
	}
	return result
}

// indexedStrings returns the string-valued entries of m ordered by
// their numeric keys.
func indexedStrings(m map[string]interface{}) []string {
	keys := make([]int, 0, len(m))
	for k := range m {
		if n, err := strconv.Atoi(k); err == nil {
			keys = append(keys, n)
		}
	}
	sort.Ints(keys)
	var result []string
	for _, k := range keys {
		if v, ok := m[strconv.Itoa(k)].(string); ok {
			result = append(result, v)
		}
	}
	return result
}

// toCriteria converts parsed criteria parameters back into a tree.
func toCriteria(m map[string]interface{}) []glpidata.Criterion {
	var result []glpidata.Criterion
	for _, node := range indexed(m) {
		c := glpidata.Criterion{}
		c.Link, _ = node["link"].(string)
		c.Itemtype, _ = node["itemtype"].(string)
		c.Field, _ = node["field"].(string)
		c.SearchType, _ = node["searchtype"].(string)
		c.Value, _ = node["value"].(string)
		if nested, ok := node["criteria"].(map[string]interface{}); ok {
			c.Criteria = toCriteria(nested)
		}
		result = append(result, c)
	}
	return result
}

// fieldValue renders one search option of an object.  It runs under
// the lock.
func (s *Server) fieldValue(item glpidata.Item, opt searchOption) string {
	if opt.Joined != "" {
		id, ok := glpidata.IntValue(item[opt.ForeignKey])
		if !ok {
			return ""
		}
		joined, present := s.items[opt.Joined][id]
		if !present {
			return ""
		}
		return joined.String(opt.Field)
	}
	return item.String(opt.Field)
}

func compareNumbers(actual, value string, less bool) bool {
	a, aErr := strconv.ParseFloat(actual, 64)
	b, bErr := strconv.ParseFloat(value, 64)
	if aErr != nil || bErr != nil {
		return false
	}
	if less {
		return a < b
	}
	return a > b
}

// contains implements the "contains" search type, including its "^"
// and "$" anchors and the "NULL" value matching empty fields.
func contains(actual, value string) bool {
	if value == "NULL" {
		return actual == ""
	}
	actual = strings.ToLower(actual)
	value = strings.ToLower(value)
	prefix := strings.HasPrefix(value, "^")
	suffix := strings.HasSuffix(value, "$")
	value = strings.TrimSuffix(strings.TrimPrefix(value, "^"), "$")
	switch {
	case prefix && suffix:
		return actual == value
	case prefix:
		return strings.HasPrefix(actual, value)
	case suffix:
		return strings.HasSuffix(actual, value)
	}
	return strings.Contains(actual, value)
}

func (s *Server) matchOne(item glpidata.Item, c glpidata.Criterion) (bool, error) {
	if c.Itemtype != "" {
		return false, badArray("meta criteria are not supported")
	}
	if c.Field == "" {
		return true, nil
	}
	opt, ok := findOption(c.Field)
	if !ok {
		return false, badArray("unknown search option " + c.Field)
	}
	actual := s.fieldValue(item, opt)
	switch c.SearchType {
	case glpidata.SearchContains, "":
		return contains(actual, c.Value), nil
	case glpidata.SearchNotContains:
		return !contains(actual, c.Value), nil
	case glpidata.SearchEquals:
		return actual == c.Value, nil
	case glpidata.SearchNotEquals:
		return actual != c.Value, nil
	case glpidata.SearchLessThan:
		return compareNumbers(actual, c.Value, true), nil
	case glpidata.SearchMoreThan:
		return compareNumbers(actual, c.Value, false), nil
	}
	return false, badArray("unsupported searchtype " + c.SearchType)
}

// matches evaluates a criteria list left to right.  Each criterion's
// link combines it with the result so far; a NOT link on the first
// criterion negates it.
func (s *Server) matches(item glpidata.Item, criteria []glpidata.Criterion) (bool, error) {
	result := true
	for i, c := range criteria {
		var v bool
		var err error
		if len(c.Criteria) > 0 {
			v, err = s.matches(item, c.Criteria)
		} else {
			v, err = s.matchOne(item, c)
		}
		if err != nil {
			return false, err
		}
		link := c.Link
		if link == "" {
			link = glpidata.LinkAnd
		}
		if i == 0 {
			if link == glpidata.LinkAndNot || link == glpidata.LinkOrNot {
				v = !v
			}
			result = v
			continue
		}
		switch link {
		case glpidata.LinkAnd:
			result = result && v
		case glpidata.LinkOr:
			result = result || v
		case glpidata.LinkAndNot:
			result = result && !v
		case glpidata.LinkOrNot:
			result = result || !v
		default:
			return false, badArray("unknown link " + link)
		}
	}
	return result, nil
}

// displayed returns the ids of the columns a search returns: the name
// and id, every field used in the criteria, and every forced field.
func displayed(criteria []glpidata.Criterion, force []string) []string {
	seen := map[string]bool{}
	var result []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	add("1")
	add("2")
	var walk func([]glpidata.Criterion)
	walk = func(criteria []glpidata.Criterion) {
		for _, c := range criteria {
			if c.Itemtype == "" {
				add(c.Field)
			}
			walk(c.Criteria)
		}
	}
	walk(criteria)
	for _, id := range force {
		add(id)
	}
	return result
}

func (s *Server) search(ctx *context) (interface{}, error) {
	itemtype := ctx.Vars["itemtype"]
	query := ctx.Request.URL.Query()
	criteria := toCriteria(parseBrackets(query, "criteria"))
	if meta := toCriteria(parseBrackets(query, "metacriteria")); len(meta) > 0 {
		return nil, badArray("meta criteria are not supported")
	}
	columns := displayed(criteria, indexedStrings(parseBrackets(query, "forcedisplay")))
	for _, id := range columns {
		if _, ok := findOption(id); !ok {
			return nil, badArray("unknown search option " + id)
		}
	}
	sortID := query.Get("sort")
	if sortID == "" {
		sortID = "1"
	}
	sortOpt, ok := findOption(sortID)
	if !ok {
		return nil, badArray("unknown search option " + sortID)
	}
	order := strings.ToUpper(query.Get("order"))
	if order == "" {
		order = "ASC"
	}
	uidCols := truthy(query.Get("uid_cols"))

	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkItemtype(itemtype); err != nil {
		return nil, err
	}

	var matched []glpidata.Item
	for _, id := range s.sortedIDs(itemtype) {
		item := s.items[itemtype][id]
		if isDeleted(item) {
			continue
		}
		ok, err := s.matches(item, criteria)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, item)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a := s.fieldValue(matched[i], sortOpt)
		b := s.fieldValue(matched[j], sortOpt)
		if sortOpt.DataType == "number" {
			if order == "DESC" {
				return compareNumbers(a, b, false)
			}
			return compareNumbers(a, b, true)
		}
		if order == "DESC" {
			return a > b
		}
		return a < b
	})

	start, end, contentRange, err := page(query.Get("range"), len(matched))
	if err != nil {
		return nil, err
	}
	var rows []interface{}
	for _, item := range matched[start:end] {
		row := map[string]interface{}{}
		for _, id := range columns {
			opt, _ := findOption(id)
			key := id
			if uidCols {
				key = itemtype + "." + opt.UID
			}
			row[key] = s.fieldValue(item, opt)
		}
		rows = append(rows, row)
	}

	body := map[string]interface{}{
		"totalcount": len(matched),
		"count":      len(rows),
		"sort":       sortID,
		"order":      order,
	}
	// GLPI leaves out data altogether when nothing matched.
	if len(rows) > 0 {
		body["data"] = rows
	}
	return response{
		Status: pageStatus(start, end, len(matched)),
		Header: http.Header{"Content-Range": {contentRange}},
		Body:   body,
	}, nil
}
