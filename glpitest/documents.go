// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpitest

import (
	"github.com/diffeo/go-glpi/glpidata"
	"io/ioutil"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// maxUpload bounds the size of an uploaded document.
const maxUpload = 2 << 20

// uploadDocument handles POST Document.  Multipart requests carry an
// uploadManifest JSON part and the file itself; plain JSON requests
// create a Document object like any other itemtype.
func (s *Server) uploadDocument(ctx *context) (interface{}, error) {
	ctx.Vars["itemtype"] = "Document"
	mediaType, _, _ := mime.ParseMediaType(ctx.Request.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return s.addItems(ctx)
	}
	if err := ctx.Request.ParseMultipartForm(maxUpload); err != nil {
		return nil, apiError{
			Status:  http.StatusBadRequest,
			Key:     glpidata.ErrorUploadFileTooBig,
			Message: err.Error(),
		}
	}

	var manifest struct {
		Input glpidata.Item `json:"input"`
	}
	err := glpidata.Decode("", strings.NewReader(ctx.Request.FormValue("uploadManifest")), &manifest)
	if err != nil || manifest.Input == nil {
		return nil, badArray("uploadManifest must be a JSON object with an input key")
	}

	file, header, err := ctx.Request.FormFile("filename[0]")
	if err != nil {
		return nil, badArray("no file uploaded as filename[0]")
	}
	defer file.Close()
	content, err := ioutil.ReadAll(file)
	if err != nil {
		return nil, err
	}

	item := copyItem(manifest.Input)
	delete(item, "_filename")
	filename := filepath.Base(header.Filename)
	item["filename"] = filename
	if item.String("name") == "" {
		item["name"] = filename
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = glpidata.OctetStreamMediaType
	}
	item["mime"] = mimeType
	item["entities_id"] = 0
	item["is_deleted"] = 0

	s.lock.Lock()
	defer s.lock.Unlock()
	id := s.putItem("Document", item)
	s.documents[id] = content
	return response{
		Status: http.StatusCreated,
		Body: map[string]interface{}{
			"id":      id,
			"message": "Document move succeeded.",
			"upload_result": map[string]interface{}{
				"filename": []interface{}{
					map[string]interface{}{
						"name": filename,
						"size": len(content),
						"type": mimeType,
					},
				},
			},
		},
	}, nil
}

// getDocument handles GET Document/{id}, sending the file content if
// the client asked for application/octet-stream.
func (s *Server) getDocument(ctx *context) (interface{}, error) {
	ctx.Vars["itemtype"] = "Document"
	if !strings.Contains(ctx.Request.Header.Get("Accept"), glpidata.OctetStreamMediaType) {
		return s.getItem(ctx)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	id := pathID(ctx)
	item, present := s.items["Document"][id]
	content, hasContent := s.documents[id]
	if !present || !hasContent {
		return nil, itemNotFound()
	}
	return rawResponse{
		ContentType: item.String("mime"),
		Body:        content,
	}, nil
}
