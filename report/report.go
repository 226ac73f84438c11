// Package report renders an import summary as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/importer"
	"github.com/mogaika/daeimport/utils"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// escape keeps table cells intact.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func vec3(v mgl32.Vec3) string {
	return fmt.Sprintf("%.4g %.4g %.4g", v[0], v[1], v[2])
}

func Markdown(col *importer.Collection, records []diag.Record) string {
	var b strings.Builder

	for _, scene := range col.Scenes {
		fmt.Fprintf(&b, "# %s\n\n", escape(scene.ModelName))

		if scene.Skeleton != nil {
			bones := scene.Skeleton.Bones()
			fmt.Fprintf(&b, "## Skeleton\n\n%d bones\n\n", len(bones))
			b.WriteString("| Bone | Parent | Translation | Rotation |\n|---|---|---|---|\n")
			for _, bone := range bones {
				parent := "-"
				if p := bone.Parent(); p != nil {
					parent = p.Name
				}
				local := bone.Local()
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", escape(bone.Name), escape(parent),
					vec3(local.Translation), vec3(utils.RadiansToDegreeV3(utils.QuatToEuler(local.Rotation))))
			}
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "## Meshes\n\n")
		if len(scene.SubMeshes) == 0 {
			b.WriteString("No meshes imported.\n\n")
			continue
		}
		b.WriteString("| Name | Topology | Vertices | Primitives | Bones | Material |\n|---|---|---:|---:|---:|---|\n")
		for _, sm := range scene.SubMeshes {
			mat := "-"
			if sm.Material != nil {
				mat = sm.Material.Name
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s |\n",
				escape(sm.Name), sm.Data.Topology, sm.Data.VertexCount, sm.Data.PrimitiveCount(),
				len(sm.Data.UtilizedBones), escape(mat))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Diagnostics\n\n")
	if len(records) == 0 {
		b.WriteString("None.\n")
		return b.String()
	}
	b.WriteString("| Level | Code | Object | Message |\n|---|---|---|---|\n")
	for _, r := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", r.Level, r.Code, escape(r.Object), escape(r.Message))
	}
	return b.String()
}

func HTML(col *importer.Collection, records []diag.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Import report</title></head><body>\n")
	if err := markdown.Convert([]byte(Markdown(col, records)), &buf); err != nil {
		return nil, errors.Wrapf(err, "Failed to render report")
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}
