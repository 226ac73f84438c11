package collada

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/daeimport/config"
)

// BindOptions controls how a document is bound.
type BindOptions struct {
	Ignore config.IgnoreFlags
	// Progress receives the fraction of input consumed, may be nil.
	Progress func(float32)
	// Size is the input length used for progress, 0 disables reporting.
	Size int64
}

const checkEvery = 256

var ignoredTags = map[string]config.IgnoreFlags{
	"asset":                   config.IgnoreAsset,
	"extra":                   config.IgnoreExtra,
	"library_controllers":     config.IgnoreControllers,
	"library_geometries":      config.IgnoreGeometry,
	"library_animations":      config.IgnoreAnimations,
	"library_animation_clips": config.IgnoreAnimations,
	"library_cameras":         config.IgnoreCameras,
	"library_lights":          config.IgnoreLights,
}

type countingReader struct {
	r    io.Reader
	read int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	return n, err
}

type binder struct {
	doc   *Document
	opts  BindOptions
	stack []Handle
	text  []*bytes.Buffer
}

// Load binds the document at path.
func Load(ctx context.Context, path string, opts BindOptions) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open %q", path)
	}
	defer f.Close()

	if opts.Size == 0 {
		if stat, err := f.Stat(); err == nil {
			opts.Size = stat.Size()
		}
	}

	doc, err := Decode(ctx, f, path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load %q", path)
	}
	return doc, nil
}

// Parse binds an in-memory document with default options.
func Parse(data []byte) (*Document, error) {
	return Decode(context.Background(), bytes.NewReader(data), "", BindOptions{Size: int64(len(data))})
}

func Decode(ctx context.Context, r io.Reader, path string, opts BindOptions) (*Document, error) {
	counter := &countingReader{r: r}
	dec := xml.NewDecoder(counter)
	dec.CharsetReader = config.CharsetReader

	b := &binder{
		doc:   newDocument(path),
		opts:  opts,
		stack: make([]Handle, 0, 32),
		text:  make([]*bytes.Buffer, 0, 32),
	}

	for elements := 0; ; {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if flag, ok := ignoredTags[t.Name.Local]; ok && opts.Ignore.Has(flag) {
				if err := dec.Skip(); err != nil {
					return nil, errors.Wrapf(err, "Failed to skip <%s>", t.Name.Local)
				}
				continue
			}
			b.start(t)

			elements++
			if elements%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if opts.Progress != nil && opts.Size > 0 {
					opts.Progress(float32(counter.read) / float32(opts.Size))
				}
			}
		case xml.CharData:
			if len(b.text) > 0 {
				b.text[len(b.text)-1].Write(t)
			}
		case xml.EndElement:
			if err := b.end(); err != nil {
				return nil, err
			}
		}
	}

	if b.doc.Root == NoHandle || b.doc.Elements[b.doc.Root].Kind != KindCollada {
		return nil, errors.Errorf("Document root is not <COLLADA>")
	}
	if opts.Progress != nil {
		opts.Progress(1)
	}
	return b.doc, nil
}

func (b *binder) start(t xml.StartElement) {
	doc := b.doc
	parent := NoHandle
	parentKind := KindAny
	if len(b.stack) > 0 {
		parent = b.stack[len(b.stack)-1]
		parentKind = doc.Elements[parent].Kind
	}

	e := Element{
		Kind:   kindForTag(t.Name.Local, parentKind),
		Tag:    t.Name.Local,
		Parent: parent,
		Scope:  NoHandle,
	}
	for _, a := range t.Attr {
		switch a.Name.Local {
		case "id":
			e.ID = a.Value
		case "sid":
			e.SID = a.Value
		case "name":
			e.Name = a.Value
		default:
			if e.Attrs == nil {
				e.Attrs = make(map[string]string, len(t.Attr))
			}
			e.Attrs[a.Name.Local] = a.Value
		}
	}

	h := Handle(len(doc.Elements))
	if e.SID != "" {
		for i := len(b.stack) - 1; i >= 0; i-- {
			if doc.Elements[b.stack[i]].IsScope() {
				e.Scope = b.stack[i]
				break
			}
		}
	}
	doc.Elements = append(doc.Elements, e)

	if parent != NoHandle {
		doc.Elements[parent].Children = append(doc.Elements[parent].Children, h)
	} else if doc.Root == NoHandle {
		doc.Root = h
	}
	if e.Scope != NoHandle {
		doc.Elements[e.Scope].Scoped = append(doc.Elements[e.Scope].Scoped, h)
	}
	if e.ID != "" {
		doc.ids[e.ID] = append(doc.ids[e.ID], h)
	}

	b.stack = append(b.stack, h)
	b.text = append(b.text, &bytes.Buffer{})
}

func (b *binder) end() error {
	if len(b.stack) == 0 {
		return errors.Errorf("Unbalanced end element")
	}
	h := b.stack[len(b.stack)-1]
	text := strings.TrimSpace(b.text[len(b.text)-1].String())
	b.stack = b.stack[:len(b.stack)-1]
	b.text = b.text[:len(b.text)-1]

	if err := b.finish(h, text); err != nil {
		e := &b.doc.Elements[h]
		return errors.Wrapf(err, "Failed to bind <%s id=%q sid=%q>", e.Tag, e.ID, e.SID)
	}
	return nil
}
