package web

import (
	"bytes"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/daeimport/config"
	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/importer"
	"github.com/mogaika/daeimport/report"
	"github.com/mogaika/daeimport/status"
	"github.com/mogaika/daeimport/utils/gltfutils"
	"github.com/mogaika/daeimport/webutils"
)

const maxUploadMemory = 32 << 20

// importUpload imports the multipart "file" field, with options from the
// optional "options" YAML field.
func importUpload(r *http.Request) (string, *importer.Collection, *diag.Log, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return "", nil, nil, errors.Wrapf(err, "Failed to parse form")
	}

	opts := config.DefaultImportOptions()
	optsData, err := webutils.ReadFormFile(r, "options", true)
	if err != nil {
		return "", nil, nil, err
	}
	if optsData != nil {
		if opts, err = config.ParseImportOptions(optsData); err != nil {
			return "", nil, nil, err
		}
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, nil, errors.Wrapf(err, "Failed to get file")
	}
	defer f.Close()

	name := filepath.Base(header.Filename)
	log.Printf("[web] Importing %q (%d bytes)", name, header.Size)
	status.Info("Importing %s", name)

	diags := diag.NewLog()
	col, err := importer.ImportReader(r.Context(), f, name, header.Size, opts,
		status.ImportProgress(name), diag.Tee(diags, status.Sink))
	if err != nil {
		status.Error("Import of %s failed: %v", name, err)
		return "", nil, nil, err
	}
	status.Progress(1, "Imported %s: %d meshes, %d diagnostics", name, col.SubMeshCount(), diags.Len())
	return name, col, diags, nil
}

func HandlerConvert(w http.ResponseWriter, r *http.Request) {
	name, col, diags, err := importUpload(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	doc, err := gltfutils.ExportCollection(col, diags)
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to export gltf"))
		return
	}

	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, doc); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to encode gltf"))
		return
	}
	webutils.WriteFile(w, &buf, strings.TrimSuffix(name, filepath.Ext(name))+".glb")
}

func HandlerReport(w http.ResponseWriter, r *http.Request) {
	_, col, diags, err := importUpload(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	html, err := report.HTML(col, diags.Records())
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	webutils.WriteResult(w, html)
}
