// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpitest

import (
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/satori/go.uuid"
	"net/http"
	"sort"
	"strings"
)

// session is the server-side state of one API session.
type session struct {
	Token     string
	UserID    int
	Login     string
	ProfileID int
	EntityID  int
	Recursive bool
}

// profile is one of the fixed profiles every user holds.
type profile struct {
	ID        int
	Name      string
	Interface string
}

var profiles = []profile{
	{ID: 4, Name: "Super-Admin", Interface: "central"},
	{ID: 1, Name: "Self-Service", Interface: "helpdesk"},
}

func findProfile(id int) (profile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}
	return profile{}, false
}

func (s *Server) lookupSession(token string) (*session, error) {
	if token == "" {
		return nil, apiError{
			Status:  http.StatusBadRequest,
			Key:     glpidata.ErrorSessionTokenMissing,
			Message: "parameter session_token is missing or empty",
		}
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	sess, present := s.sessions[token]
	if !present {
		return nil, apiError{
			Status:  http.StatusUnauthorized,
			Key:     glpidata.ErrorSessionTokenInvalid,
			Message: "session_token seems invalid",
		}
	}
	return sess, nil
}

// authenticate finds the user named by an Authorization: header.
func (s *Server) authenticate(req *http.Request) (int, User, error) {
	authorization := req.Header.Get("Authorization")
	s.lock.Lock()
	defer s.lock.Unlock()
	if strings.HasPrefix(authorization, "user_token ") {
		token := strings.TrimSpace(strings.TrimPrefix(authorization, "user_token "))
		for id, user := range s.users {
			if token != "" && user.UserToken == token {
				return id, user, nil
			}
		}
		return 0, User{}, apiError{
			Status:  http.StatusUnauthorized,
			Key:     glpidata.ErrorGLPILoginUserToken,
			Message: "parameter user_token seems invalid",
		}
	}
	if login, password, ok := req.BasicAuth(); ok {
		for id, user := range s.users {
			if user.Login == login && user.Password != "" && user.Password == password {
				return id, user, nil
			}
		}
		return 0, User{}, apiError{
			Status:  http.StatusUnauthorized,
			Key:     glpidata.ErrorGLPILogin,
			Message: "Incorrect username or password",
		}
	}
	return 0, User{}, apiError{
		Status:  http.StatusBadRequest,
		Key:     glpidata.ErrorLoginParameters,
		Message: "parameter(s) login, password or user_token are missing",
	}
}

func (s *Server) initSession(ctx *context) (interface{}, error) {
	id, user, err := s.authenticate(ctx.Request)
	if err != nil {
		return nil, err
	}
	sess := &session{
		Token:     uuid.NewV4().String(),
		UserID:    id,
		Login:     user.Login,
		ProfileID: profiles[0].ID,
		Recursive: true,
	}
	s.lock.Lock()
	s.sessions[sess.Token] = sess
	s.lock.Unlock()
	return map[string]interface{}{"session_token": sess.Token}, nil
}

func (s *Server) killSession(ctx *context) (interface{}, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.sessions, ctx.Session.Token)
	return nil, nil
}

// entityList returns the entities visible from entityID, the entity
// itself first, then descendants if recursive.  It runs under the lock.
func (s *Server) entityList(entityID int, recursive bool) []glpidata.Item {
	var result []glpidata.Item
	if entity, present := s.items["Entity"][entityID]; present {
		result = append(result, entity)
	}
	if !recursive {
		return result
	}
	var ids []int
	for id, entity := range s.items["Entity"] {
		if id == entityID {
			continue
		}
		if s.entityUnder(entity, entityID) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		result = append(result, s.items["Entity"][id])
	}
	return result
}

// entityUnder reports whether entity is a descendant of ancestorID.
func (s *Server) entityUnder(entity glpidata.Item, ancestorID int) bool {
	seen := map[int]bool{}
	for {
		id, _ := entity.ID()
		parent, _ := glpidata.IntValue(entity["entities_id"])
		if parent == id || seen[id] {
			return false
		}
		if parent == ancestorID {
			return true
		}
		seen[id] = true
		next, present := s.items["Entity"][parent]
		if !present {
			return false
		}
		entity = next
	}
}

func entitySummary(entity glpidata.Item, recursive bool) map[string]interface{} {
	return map[string]interface{}{
		"id":           entity["id"],
		"name":         entity["name"],
		"completename": entity["completename"],
		"level":        entity["level"],
		"is_recursive": boolInt(recursive),
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Server) getMyProfiles(ctx *context) (interface{}, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	root := s.items["Entity"][0]
	result := make([]interface{}, len(profiles))
	for i, p := range profiles {
		result[i] = map[string]interface{}{
			"id":       p.ID,
			"name":     p.Name,
			"entities": []interface{}{entitySummary(root, true)},
		}
	}
	return map[string]interface{}{"myprofiles": result}, nil
}

func (s *Server) getActiveProfile(ctx *context) (interface{}, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	p, _ := findProfile(ctx.Session.ProfileID)
	return map[string]interface{}{
		"active_profile": map[string]interface{}{
			"id":        p.ID,
			"name":      p.Name,
			"interface": p.Interface,
		},
	}, nil
}

func (s *Server) changeActiveProfile(ctx *context) (interface{}, error) {
	var body map[string]interface{}
	if err := ctx.decodeBody(&body); err != nil {
		return nil, err
	}
	id, ok := glpidata.IntValue(body["profiles_id"])
	if !ok {
		return nil, badArray("missing parameter profiles_id")
	}
	if _, present := findProfile(id); !present {
		return nil, itemNotFound()
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	ctx.Session.ProfileID = id
	return nil, nil
}

func (s *Server) getMyEntities(ctx *context) (interface{}, error) {
	recursive := truthy(ctx.Request.URL.Query().Get("is_recursive"))
	s.lock.Lock()
	defer s.lock.Unlock()
	var result []interface{}
	for _, entity := range s.entityList(0, recursive) {
		result = append(result, map[string]interface{}{
			"id":   entity["id"],
			"name": entity["completename"],
		})
	}
	return map[string]interface{}{"myentities": result}, nil
}

func (s *Server) getActiveEntities(ctx *context) (interface{}, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	var active []interface{}
	for _, entity := range s.entityList(ctx.Session.EntityID, ctx.Session.Recursive) {
		active = append(active, map[string]interface{}{"id": entity["id"]})
	}
	return map[string]interface{}{
		"active_entity": map[string]interface{}{
			"id":                      ctx.Session.EntityID,
			"active_entity_recursive": ctx.Session.Recursive,
			"active_entities":         active,
		},
	}, nil
}

func (s *Server) changeActiveEntities(ctx *context) (interface{}, error) {
	var body map[string]interface{}
	if err := ctx.decodeBody(&body); err != nil {
		return nil, err
	}
	recursive := false
	switch r := body["is_recursive"].(type) {
	case bool:
		recursive = r
	case string:
		recursive = truthy(r)
	default:
		if n, ok := glpidata.IntValue(r); ok {
			recursive = n != 0
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if body["entities_id"] == "all" {
		ctx.Session.EntityID = 0
		ctx.Session.Recursive = true
		return nil, nil
	}
	id, ok := glpidata.IntValue(body["entities_id"])
	if !ok {
		return nil, badArray("missing parameter entities_id")
	}
	if _, present := s.items["Entity"][id]; !present {
		return nil, itemNotFound()
	}
	ctx.Session.EntityID = id
	ctx.Session.Recursive = recursive
	return nil, nil
}

func (s *Server) getFullSession(ctx *context) (interface{}, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	p, _ := findProfile(ctx.Session.ProfileID)
	return map[string]interface{}{
		"session": map[string]interface{}{
			"glpiID":                      ctx.Session.UserID,
			"glpiname":                    ctx.Session.Login,
			"glpiactive_entity":           ctx.Session.EntityID,
			"glpiactive_entity_recursive": boolInt(ctx.Session.Recursive),
			"glpiactiveprofile": map[string]interface{}{
				"id":        p.ID,
				"name":      p.Name,
				"interface": p.Interface,
			},
		},
	}, nil
}

// Version is the GLPI version the fake server reports.
const Version = "9.5.7"

func (s *Server) getGlpiConfig(ctx *context) (interface{}, error) {
	return map[string]interface{}{
		"cfg_glpi": map[string]interface{}{
			"version":           Version,
			"enable_api":        1,
			"language":          "en_GB",
			"document_max_size": 2,
		},
	}, nil
}
