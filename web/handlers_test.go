package web

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, target string, file []byte, options string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("file", "rig.dae")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	if options != "" {
		fw, err := mw.CreateFormFile("options", "options.yaml")
		require.NoError(t, err)
		_, err = fw.Write([]byte(options))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func readRig(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../importer/testdata/rig.dae")
	require.NoError(t, err)
	return data
}

func TestHandlerConvert(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, uploadRequest(t, "/convert", readRig(t), "generate_tangents: false\n"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "glTF", rec.Body.String()[:4])
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rig.glb")
}

func TestHandlerReport(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, uploadRequest(t, "/report", readRig(t), ""))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>rig</h1>")
}

func TestHandlerErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		file    []byte
		options string
	}{
		{"no file", nil, ""},
		{"bad options", []byte("<COLLADA/>"), "workers: -1\n"},
		{"bad document", []byte("<nope/>"), ""},
	} {
		rec := httptest.NewRecorder()
		NewRouter().ServeHTTP(rec, uploadRequest(t, "/convert", tc.file, tc.options))
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
		assert.Contains(t, rec.Body.String(), `"error"`, tc.name)
	}

	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, httptest.NewRequest("GET", "/convert", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
