// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"bytes"
	"context"
	"github.com/diffeo/go-glpi/glpidata"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
)

// UploadDocument creates a Document object holding the content of r.
// name is the document's display name; filename is the name the file
// is stored under, and defaults to name.  Returns the server's
// response, normally with "id" and "message" keys.
func (c *Client) UploadDocument(ctx context.Context, name, filename string, r io.Reader) (glpidata.Item, error) {
	if filename == "" {
		filename = name
	}
	filename = filepath.Base(filename)
	if name == "" {
		name = filename
	}

	manifest, err := glpidata.Encode(map[string]interface{}{
		"input": map[string]interface{}{
			"name":      name,
			"_filename": []string{filename},
		},
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err = form.WriteField("uploadManifest", string(manifest)); err != nil {
		return nil, err
	}
	part, err := form.CreateFormFile("filename[0]", filename)
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(part, r); err != nil {
		return nil, err
	}
	if err = form.Close(); err != nil {
		return nil, err
	}

	var body interface{}
	resp, err := c.do(ctx, request{
		Method:      http.MethodPost,
		Endpoint:    "Document",
		Body:        &buf,
		ContentType: form.FormDataContentType(),
	}, &body)
	if err != nil {
		return nil, err
	}
	items := glpidata.ToItems(multiStatus(resp.StatusCode, body))
	if len(items) == 0 {
		return glpidata.Item{}, nil
	}
	return items[0], nil
}

// DownloadDocument copies the content of a Document object into w,
// returning the number of bytes written.
func (c *Client) DownloadDocument(ctx context.Context, id int, w io.Writer) (int64, error) {
	counter := &countingWriter{w: w}
	_, err := c.do(ctx, request{
		Method:   http.MethodGet,
		Endpoint: "Document/{id}",
		Vars:     map[string]interface{}{"id": strconv.Itoa(id)},
		Accept:   glpidata.OctetStreamMediaType,
	}, counter)
	return counter.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
