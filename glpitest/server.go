// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package glpitest provides an in-memory fake of the GLPI REST API.
//
// The fake implements enough of GLPI to exercise a client end to end:
// sessions with user tokens or passwords, profiles and entities, item
// CRUD with the trash, sub-items, the search engine over a small set
// of search options, and documents.  It is intended for tests, where
// it is normally run under net/http/httptest:
//
//	server := glpitest.New()
//	server.AddUser(glpitest.User{Login: "glpi", UserToken: "secret"})
//	ts := httptest.NewServer(server.Handler())
//	defer ts.Close()
//	client, err := glpi.New(ctx, ts.URL+glpitest.APIPath, glpi.Options{
//	    Auth: glpi.UserToken("secret"),
//	})
//
// It is also what the glpimock daemon serves.
package glpitest

import (
	"github.com/diffeo/go-glpi/glpidata"
	"github.com/gorilla/mux"
	"net/http"
	"net/url"
	"strconv"
	"sync"
)

// APIPath is the path under which Handler() serves the API, as on a
// stock GLPI install.
const APIPath = "/apirest.php"

// User is an account that can open sessions.
type User struct {
	// Login is the user name for basic authentication.
	Login string

	// Password enables basic authentication if non-empty.
	Password string

	// UserToken enables user_token authentication if non-empty.
	UserToken string
}

// Request records one request the server received.
type Request struct {
	Method       string
	Path         string
	Query        url.Values
	SessionToken string
	AppToken     string
}

// Server is a fake GLPI instance.  Its zero value is not usable; call
// New().  All methods are safe to call concurrently, including while
// requests are being served.
type Server struct {
	// AppToken, if non-empty, must be sent with every request.
	// Set it before serving requests.
	AppToken string

	// RequestLogSize is the number of recent requests kept for
	// Requests().  New() sets DefaultRequestLogSize; zero keeps
	// none.  RequestCount() counts every request regardless.
	RequestLogSize int

	lock      sync.Mutex
	users     map[int]User
	sessions  map[string]*session
	itemtypes map[string]struct{}
	items     map[string]map[int]glpidata.Item
	nextID    map[string]int
	documents map[int][]byte
	requests  []Request
	count     int
}

// DefaultRequestLogSize is the initial RequestLogSize of a new server.
const DefaultRequestLogSize = 1000

// New creates a fake server holding only the root entity and one
// child entity.  Add users with AddUser() before connecting.
func New() *Server {
	s := &Server{
		users:     make(map[int]User),
		sessions:  make(map[string]*session),
		itemtypes: make(map[string]struct{}),
		items:     make(map[string]map[int]glpidata.Item),
		nextID:    make(map[string]int),
		documents: make(map[int][]byte),

		RequestLogSize: DefaultRequestLogSize,
	}
	for _, itemtype := range defaultItemtypes {
		s.itemtypes[itemtype] = struct{}{}
	}
	s.putItem("Entity", glpidata.Item{
		"id":           0,
		"name":         rootEntityName,
		"completename": rootEntityName,
		"entities_id":  0,
		"level":        1,
	})
	s.putItem("Entity", glpidata.Item{
		"id":           1,
		"name":         "Child",
		"completename": rootEntityName + " > Child",
		"entities_id":  0,
		"level":        2,
	})
	return s
}

// defaultItemtypes are the itemtypes a new server accepts.
var defaultItemtypes = []string{
	"Computer", "Monitor", "Printer", "NetworkEquipment", "Peripheral",
	"Phone", "Software", "SoftwareVersion", "Ticket", "Problem",
	"Change", "User", "Group", "Entity", "Location", "Document",
	"Document_Item", "Log", "ComputerModel", "Manufacturer",
}

const rootEntityName = "Root entity"

// AddItemtype makes the server accept another itemtype.
func (s *Server) AddItemtype(itemtype string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.itemtypes[itemtype] = struct{}{}
}

// AddUser creates a user account, returning its id.
func (s *Server) AddUser(user User) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	id := s.putItem("User", glpidata.Item{"name": user.Login})
	s.users[id] = user
	return id
}

// AddItem stores an object, assigning it the next free id unless it
// already has one.  It returns the object's id.
func (s *Server) AddItem(itemtype string, item glpidata.Item) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.itemtypes[itemtype] = struct{}{}
	return s.putItem(itemtype, copyItem(item))
}

// Item returns a copy of a stored object, or nil if there is none.
func (s *Server) Item(itemtype string, id int) glpidata.Item {
	s.lock.Lock()
	defer s.lock.Unlock()
	item, present := s.items[itemtype][id]
	if !present {
		return nil
	}
	return copyItem(item)
}

// Document returns the content of an uploaded document, or nil.
func (s *Server) Document(id int) []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.documents[id]
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.sessions)
}

// Requests returns the most recent requests received, oldest first.
// At most RequestLogSize are kept.
func (s *Server) Requests() []Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns the number of requests received since the
// server was created.
func (s *Server) RequestCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.count
}

// Handler returns an HTTP handler serving the API under APIPath.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.PopulateRouter(r.PathPrefix(APIPath).Subrouter())
	return r
}

// PopulateRouter adds all of the API endpoints to an existing router.
// This can be used to serve the API under a different path.
func (s *Server) PopulateRouter(r *mux.Router) {
	anon := func(h handlerFunc) http.Handler {
		return &endpoint{Server: s, Anonymous: true, Handle: h}
	}
	auth := func(h handlerFunc) http.Handler {
		return &endpoint{Server: s, Handle: h}
	}

	r.Path("/initSession").Methods("GET").Handler(anon(s.initSession))
	r.Path("/killSession").Methods("GET").Handler(auth(s.killSession))
	r.Path("/getMyProfiles").Methods("GET").Handler(auth(s.getMyProfiles))
	r.Path("/getActiveProfile").Methods("GET").Handler(auth(s.getActiveProfile))
	r.Path("/changeActiveProfile").Methods("POST").Handler(auth(s.changeActiveProfile))
	r.Path("/getMyEntities").Methods("GET").Handler(auth(s.getMyEntities))
	r.Path("/getActiveEntities").Methods("GET").Handler(auth(s.getActiveEntities))
	r.Path("/changeActiveEntities").Methods("POST").Handler(auth(s.changeActiveEntities))
	r.Path("/getFullSession").Methods("GET").Handler(auth(s.getFullSession))
	r.Path("/getGlpiConfig").Methods("GET").Handler(auth(s.getGlpiConfig))
	r.Path("/getMultipleItems").Methods("GET").Handler(auth(s.getMultipleItems))
	r.Path("/listSearchOptions/{itemtype}").Methods("GET").Handler(auth(s.listSearchOptions))
	r.Path("/search/{itemtype}").Methods("GET").Handler(auth(s.search))

	r.Path("/Document").Methods("POST").Handler(auth(s.uploadDocument))
	r.Path("/Document/{id:[0-9]+}").Methods("GET").Handler(auth(s.getDocument))

	r.Path("/{itemtype}").Methods("GET").Handler(auth(s.getAllItems))
	r.Path("/{itemtype}").Methods("POST").Handler(auth(s.addItems))
	r.Path("/{itemtype}").Methods("PUT").Handler(auth(s.updateItems))
	r.Path("/{itemtype}").Methods("DELETE").Handler(auth(s.deleteItems))
	r.Path("/{itemtype}/{id:[0-9]+}").Methods("GET").Handler(auth(s.getItem))
	r.Path("/{itemtype}/{id:[0-9]+}/{subtype}").Methods("GET").Handler(auth(s.getSubItems))
}

// putItem stores item, running under the lock.
func (s *Server) putItem(itemtype string, item glpidata.Item) int {
	if s.items[itemtype] == nil {
		s.items[itemtype] = make(map[int]glpidata.Item)
	}
	id, ok := item.ID()
	if !ok {
		id = s.nextID[itemtype]
		if id == 0 {
			id = 1
		}
	}
	item["id"] = id
	s.items[itemtype][id] = item
	if id >= s.nextID[itemtype] {
		s.nextID[itemtype] = id + 1
	}
	return id
}

// checkItemtype returns an error if the server does not know an
// itemtype.  It runs under the lock.
func (s *Server) checkItemtype(itemtype string) error {
	if _, known := s.itemtypes[itemtype]; !known {
		return apiError{
			Status:  http.StatusBadRequest,
			Key:     glpidata.ErrorResourceNotFound,
			Message: "resource not found or not an instance of CommonDBTM",
		}
	}
	return nil
}

func copyItem(item glpidata.Item) glpidata.Item {
	out := make(glpidata.Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func itemNotFound() error {
	return apiError{
		Status:  http.StatusNotFound,
		Key:     glpidata.ErrorItemNotFound,
		Message: "Item not found",
	}
}

func badArray(message string) error {
	return apiError{
		Status:  http.StatusBadRequest,
		Key:     glpidata.ErrorBadArray,
		Message: message,
	}
}

// pathID parses the {id} route variable, which the router has already
// constrained to digits.
func pathID(ctx *context) int {
	id, _ := strconv.Atoi(ctx.Vars["id"])
	return id
}
