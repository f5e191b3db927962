// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package glpidata defines the data structures exchanged with the GLPI
// REST API, shared between the glpi client and the glpitest fake
// server.
//
// # GLPI Data
//
// Almost everything GLPI returns is an untyped JSON object whose keys
// are field names (for item endpoints) or numeric search option ids
// rendered as strings (for the search endpoint).  These are carried
// around as Item.  The handful of session-introspection responses with
// a stable shape have typed equivalents here (Profile, Entity,
// ActiveEntity, SearchOption); they are decoded from the generic JSON
// with weak typing, since GLPI happily returns 0/1 for booleans and
// strings for ids.
//
// # Query Strings
//
// GLPI is a PHP application and takes structured query parameters in
// PHP's bracket notation, e.g.
//
//	criteria[0][field]=1&criteria[0][searchtype]=contains&criteria[0][value]=pc
//
// Params and SearchQuery produce these encodings.  Neither ever
// modifies the values it is asked to encode.
//
// # Errors
//
// Failing GLPI responses carry a two-element JSON list, the error key
// and a human-readable message:
//
//	["ERROR_SESSION_TOKEN_INVALID", "session_token seems invalid"]
//
// ParseErrorDocument extracts these.
package glpidata

// Item is a single GLPI object as returned by the server.  Keys are
// field names, or search option ids for search results.
type Item map[string]interface{}

// ItemRef identifies one object for the getMultipleItems endpoint.
type ItemRef struct {
	Itemtype string
	ID       int
}

// Profile is one entry of the getMyProfiles response.
type Profile struct {
	ID       int      `mapstructure:"id" json:"id"`
	Name     string   `mapstructure:"name" json:"name"`
	Entities []Entity `mapstructure:"entities" json:"entities"`
}

// Entity is one entry of the getMyEntities response, or one of the
// entities attached to a Profile.
type Entity struct {
	ID           int    `mapstructure:"id" json:"id"`
	Name         string `mapstructure:"name" json:"name"`
	CompleteName string `mapstructure:"completename" json:"completename"`
	IsRecursive  bool   `mapstructure:"is_recursive" json:"is_recursive"`
	Level        int    `mapstructure:"level" json:"level"`
}

// EntityRef is an entity reference with only an id.
type EntityRef struct {
	ID int `mapstructure:"id" json:"id"`
}

// ActiveEntity describes the entities currently visible to the
// session, as returned by getActiveEntities.
type ActiveEntity struct {
	ID             int         `mapstructure:"id" json:"id"`
	Recursive      bool        `mapstructure:"active_entity_recursive" json:"active_entity_recursive"`
	ActiveEntities []EntityRef `mapstructure:"active_entities" json:"active_entities"`
}

// SearchOption describes one searchable field of an itemtype, as
// returned by listSearchOptions.  Section headers (such as the
// "common" entry) only have a Name.
type SearchOption struct {
	Name                 string   `mapstructure:"name" json:"name"`
	Table                string   `mapstructure:"table" json:"table"`
	Field                string   `mapstructure:"field" json:"field"`
	DataType             string   `mapstructure:"datatype" json:"datatype"`
	UID                  string   `mapstructure:"uid" json:"uid"`
	NoSearch             bool     `mapstructure:"nosearch" json:"nosearch"`
	NoDisplay            bool     `mapstructure:"nodisplay" json:"nodisplay"`
	AvailableSearchTypes []string `mapstructure:"available_searchtypes" json:"available_searchtypes"`
}

// SearchResult is the decoded body of a search request.
type SearchResult struct {
	// TotalCount is the number of matching rows on the server.
	TotalCount int `mapstructure:"totalcount" json:"totalcount"`

	// Count is the number of rows in this page.
	Count int `mapstructure:"count" json:"count"`

	// Sort and Order echo the sort the server applied.
	Sort  interface{} `mapstructure:"sort" json:"sort"`
	Order interface{} `mapstructure:"order" json:"order"`

	// ContentRange is the server's Content-Range header, if any,
	// e.g. "0-49/200".
	ContentRange string `mapstructure:"-" json:"content_range,omitempty"`

	// Data holds the result rows.  It is never nil.
	Data []Item `mapstructure:"-" json:"data"`
}
