// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpitest

import (
	"fmt"
	"github.com/diffeo/go-glpi/glpidata"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// defaultRange is the page GLPI returns when no range is requested.
const defaultRange = "0-49"

var rangePattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// page applies a "start-end" range to n rows.  It returns the slice
// bounds and the Content-Range header value.
func page(rangeParam string, n int) (int, int, string, error) {
	if rangeParam == "" {
		rangeParam = defaultRange
	}
	m := rangePattern.FindStringSubmatch(rangeParam)
	if m == nil {
		return 0, 0, "", apiError{
			Status:  http.StatusBadRequest,
			Key:     "ERROR_RANGE_EXCEED_TOTAL",
			Message: "Provided range is invalid",
		}
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end < start {
		return 0, 0, "", badArray("range end precedes start")
	}
	if start >= n {
		if n == 0 {
			return 0, 0, fmt.Sprintf("0-0/%d", n), nil
		}
		return 0, 0, "", apiError{
			Status:  http.StatusBadRequest,
			Key:     "ERROR_RANGE_EXCEED_TOTAL",
			Message: "Provided range exceed total count of data",
		}
	}
	if end >= n {
		end = n - 1
	}
	return start, end + 1, fmt.Sprintf("%d-%d/%d", start, end, n), nil
}

// pageStatus is 206 Partial Content if a page omits some rows.
func pageStatus(start, end, n int) int {
	if end-start < n {
		return http.StatusPartialContent
	}
	return http.StatusOK
}

// sortedIDs returns the ids of an itemtype's objects in order.  It
// runs under the lock.
func (s *Server) sortedIDs(itemtype string) []int {
	ids := make([]int, 0, len(s.items[itemtype]))
	for id := range s.items[itemtype] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func isDeleted(item glpidata.Item) bool {
	n, _ := glpidata.IntValue(item["is_deleted"])
	return n != 0
}

// expandDropdowns replaces foreign keys the fake knows about with the
// names of the objects they point to.  It runs under the lock.
func (s *Server) expandDropdowns(item glpidata.Item) glpidata.Item {
	out := copyItem(item)
	if id, ok := glpidata.IntValue(item["entities_id"]); ok {
		if entity, present := s.items["Entity"][id]; present {
			out["entities_id"] = entity["completename"]
		}
	}
	return out
}

func (s *Server) render(item glpidata.Item, expand bool) glpidata.Item {
	if expand {
		return s.expandDropdowns(item)
	}
	return copyItem(item)
}

func (s *Server) getItem(ctx *context) (interface{}, error) {
	itemtype := ctx.Vars["itemtype"]
	expand := truthy(ctx.Request.URL.Query().Get("expand_dropdowns"))
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkItemtype(itemtype); err != nil {
		return nil, err
	}
	item, present := s.items[itemtype][pathID(ctx)]
	if !present {
		return nil, itemNotFound()
	}
	return s.render(item, expand), nil
}

func (s *Server) getAllItems(ctx *context) (interface{}, error) {
	itemtype := ctx.Vars["itemtype"]
	query := ctx.Request.URL.Query()
	expand := truthy(query.Get("expand_dropdowns"))
	deleted := truthy(query.Get("is_deleted"))
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkItemtype(itemtype); err != nil {
		return nil, err
	}
	var rows []interface{}
	for _, id := range s.sortedIDs(itemtype) {
		item := s.items[itemtype][id]
		if isDeleted(item) != deleted {
			continue
		}
		rows = append(rows, s.render(item, expand))
	}
	if strings.EqualFold(query.Get("order"), "DESC") {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	return pagedList(query.Get("range"), rows)
}

func pagedList(rangeParam string, rows []interface{}) (interface{}, error) {
	start, end, contentRange, err := page(rangeParam, len(rows))
	if err != nil {
		return nil, err
	}
	body := rows[start:end]
	if body == nil {
		body = []interface{}{}
	}
	return response{
		Status: pageStatus(start, end, len(rows)),
		Header: http.Header{
			"Content-Range": {contentRange},
			"Accept-Range":  {"990"},
		},
		Body: body,
	}, nil
}

// subItemMatches reports whether sub points at a parent object, either
// through a polymorphic itemtype/items_id pair or through a foreign
// key named after the parent's table.
func subItemMatches(sub glpidata.Item, itemtype string, id int) bool {
	if subType, ok := sub["itemtype"].(string); ok && subType == itemtype {
		n, ok := glpidata.IntValue(sub["items_id"])
		return ok && n == id
	}
	fk := strings.ToLower(itemtype) + "s_id"
	n, ok := glpidata.IntValue(sub[fk])
	return ok && n == id
}

func (s *Server) getSubItems(ctx *context) (interface{}, error) {
	itemtype := ctx.Vars["itemtype"]
	subtype := ctx.Vars["subtype"]
	id := pathID(ctx)
	query := ctx.Request.URL.Query()
	expand := truthy(query.Get("expand_dropdowns"))
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkItemtype(itemtype); err != nil {
		return nil, err
	}
	if err := s.checkItemtype(subtype); err != nil {
		return nil, err
	}
	if _, present := s.items[itemtype][id]; !present {
		return nil, itemNotFound()
	}
	var rows []interface{}
	for _, subID := range s.sortedIDs(subtype) {
		sub := s.items[subtype][subID]
		if subItemMatches(sub, itemtype, id) {
			rows = append(rows, s.render(sub, expand))
		}
	}
	return pagedList(query.Get("range"), rows)
}

func (s *Server) getMultipleItems(ctx *context) (interface{}, error) {
	query := ctx.Request.URL.Query()
	refs := indexed(parseBrackets(query, "items"))
	if len(refs) == 0 {
		return nil, badArray("items parameter must be an array of objects")
	}
	expand := truthy(query.Get("expand_dropdowns"))
	s.lock.Lock()
	defer s.lock.Unlock()
	result := make([]interface{}, 0, len(refs))
	for _, ref := range refs {
		itemtype, _ := ref["itemtype"].(string)
		id, ok := glpidata.IntValue(ref["items_id"])
		if !ok {
			return nil, badArray("items_id must be an integer")
		}
		if err := s.checkItemtype(itemtype); err != nil {
			return nil, err
		}
		item, present := s.items[itemtype][id]
		if !present {
			return nil, itemNotFound()
		}
		result = append(result, s.render(item, expand))
	}
	return result, nil
}

// partial wraps per-item results in a 207 Multi-Status response if
// any of them failed.
func partial(key string, results []interface{}, failed bool, success int) interface{} {
	if failed {
		return response{
			Status: http.StatusMultiStatus,
			Body:   []interface{}{key, results},
		}
	}
	return response{Status: success, Body: results}
}

func (s *Server) addItems(ctx *context) (interface{}, error) {
	itemtype := ctx.Vars["itemtype"]
	input, err := ctx.decodeInput()
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkItemtype(itemtype); err != nil {
		return nil, err
	}
	return s.addLocked(itemtype, input), nil
}

// addLocked creates objects, running under the lock.  Objects without
// a name fail, as do objects that already carry an id.
func (s *Server) addLocked(itemtype string, input []glpidata.Item) interface{} {
	results := make([]interface{}, 0, len(input))
	failed := false
	for _, in := range input {
		if _, hasID := in["id"]; hasID || in.String("name") == "" {
			failed = true
			results = append(results, map[string]interface{}{
				"id":      false,
				"message": "You must provide a name and no id",
			})
			continue
		}
		item := copyItem(in)
		if _, hasEntity := item["entities_id"]; !hasEntity {
			item["entities_id"] = 0
		}
		if _, hasDeleted := item["is_deleted"]; !hasDeleted {
			item["is_deleted"] = 0
		}
		id := s.putItem(itemtype, item)
		results = append(results, map[string]interface{}{
			"id":      id,
			"message": "",
		})
	}
	return partial("ERROR_GLPI_PARTIAL_ADD", results, failed, http.StatusCreated)
}

func (s *Server) updateItems(ctx *context) (interface{}, error) {
	itemtype := ctx.Vars["itemtype"]
	input, err := ctx.decodeInput()
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkItemtype(itemtype); err != nil {
		return nil, err
	}
	results := make([]interface{}, 0, len(input))
	failed := false
	for _, in := range input {
		id, ok := in.ID()
		item, present := s.items[itemtype][id]
		if !ok || !present {
			failed = true
			results = append(results, map[string]interface{}{
				in.String("id"): false,
				"message":       "Item not found",
			})
			continue
		}
		for k, v := range in {
			if k != "id" {
				item[k] = v
			}
		}
		results = append(results, map[string]interface{}{
			strconv.Itoa(id): true,
			"message":        "",
		})
	}
	return partial("ERROR_GLPI_PARTIAL_UPDATE", results, failed, http.StatusOK), nil
}

func (s *Server) deleteItems(ctx *context) (interface{}, error) {
	itemtype := ctx.Vars["itemtype"]
	purge := truthy(ctx.Request.URL.Query().Get("force_purge"))
	input, err := ctx.decodeInput()
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkItemtype(itemtype); err != nil {
		return nil, err
	}
	results := make([]interface{}, 0, len(input))
	failed := false
	for _, in := range input {
		id, ok := in.ID()
		item, present := s.items[itemtype][id]
		if !ok || !present {
			failed = true
			results = append(results, map[string]interface{}{
				in.String("id"): false,
				"message":       "Item not found",
			})
			continue
		}
		if purge {
			delete(s.items[itemtype], id)
			if itemtype == "Document" {
				delete(s.documents, id)
			}
		} else {
			item["is_deleted"] = 1
		}
		results = append(results, map[string]interface{}{
			strconv.Itoa(id): true,
			"message":        "",
		})
	}
	return partial("ERROR_GLPI_PARTIAL_DELETE", results, failed, http.StatusOK), nil
}
