// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpidata

import (
	"bytes"
)

// Well-known GLPI error keys.
const (
	ErrorItemNotFound         = "ERROR_ITEM_NOT_FOUND"
	ErrorBadArray             = "ERROR_BAD_ARRAY"
	ErrorMethodNotAllowed     = "ERROR_METHOD_NOT_ALLOWED"
	ErrorRightMissing         = "ERROR_RIGHT_MISSING"
	ErrorSessionTokenInvalid  = "ERROR_SESSION_TOKEN_INVALID"
	ErrorSessionTokenMissing  = "ERROR_SESSION_TOKEN_MISSING"
	ErrorAppTokenParameters   = "ERROR_WRONG_APP_TOKEN_PARAMETER"
	ErrorLoginParameters      = "ERROR_LOGIN_PARAMETERS_MISSING"
	ErrorGLPILogin            = "ERROR_GLPI_LOGIN"
	ErrorGLPILoginUserToken   = "ERROR_GLPI_LOGIN_USER_TOKEN"
	ErrorResourceNotFound     = "ERROR_RESOURCE_NOT_FOUND_NOR_COMMONDBTM"
	ErrorUploadFileTooBig     = "ERROR_UPLOAD_FILE_TOO_BIG_POST_MAX_SIZE"
	ErrorJSONPayloadInvalid   = "ERROR_JSON_PAYLOAD_INVALID"
	ErrorJSONPayloadForbidden = "ERROR_JSON_PAYLOAD_FORBIDDEN"
)

// ErrorDocument is the body GLPI sends with failing responses.
type ErrorDocument struct {
	Key     string
	Message string
}

// MarshalBody returns the wire form of e, a two-element JSON list.
func (e ErrorDocument) MarshalBody() ([]byte, error) {
	return Encode([]string{e.Key, e.Message})
}

// ParseErrorDocument tries to interpret body as a GLPI error
// document.  It returns false if the body is anything else.
func ParseErrorDocument(body []byte) (ErrorDocument, bool) {
	var doc []interface{}
	if err := Decode("", bytes.NewReader(body), &doc); err != nil {
		return ErrorDocument{}, false
	}
	if len(doc) == 0 {
		return ErrorDocument{}, false
	}
	key, ok := doc[0].(string)
	if !ok {
		return ErrorDocument{}, false
	}
	result := ErrorDocument{Key: key}
	if len(doc) > 1 {
		if msg, ok := doc[1].(string); ok {
			result.Message = msg
		}
	}
	return result, true
}
