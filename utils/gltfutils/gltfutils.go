package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// ExportBinary writes doc as GLB. Nodes nobody references as a child are
// attached to the default scene first.
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
		doc.Scene = gltf.Index(0)
	}

	attached := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			attached[c] = true
		}
	}
	for _, s := range doc.Scenes {
		for _, n := range s.Nodes {
			attached[n] = true
		}
	}
	for iNode := range doc.Nodes {
		if !attached[uint32(iNode)] {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(iNode))
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
