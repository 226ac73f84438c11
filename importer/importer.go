// Package importer turns a bound COLLADA document into skeletons and
// deduplicated sub meshes.
package importer

import (
	"context"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/mogaika/daeimport/collada"
	"github.com/mogaika/daeimport/config"
	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/material"
	"github.com/mogaika/daeimport/mesh"
	"github.com/mogaika/daeimport/resolver"
	"github.com/mogaika/daeimport/skeleton"
)

// ProgressFunc receives the completed fraction in [0, 1]. During decoding it
// is called from the worker goroutines.
type ProgressFunc func(float32)

type SubMesh struct {
	Name     string
	Data     *mesh.Data
	Material *material.Material
	// Bone is the nearest joint above the instancing node, nil at scene level.
	Bone *skeleton.Bone
}

type Scene struct {
	ModelName string
	// Skeleton is nil when the scene has no joints.
	Skeleton  *skeleton.Skeleton
	SubMeshes []*SubMesh
}

type Collection struct {
	Scenes []*Scene
}

func (c *Collection) SubMeshCount() int {
	n := 0
	for _, s := range c.Scenes {
		n += len(s.SubMeshes)
	}
	return n
}

func prepare(opts *config.ImportOptions, progress ProgressFunc) (*config.ImportOptions, ProgressFunc, error) {
	if opts == nil {
		opts = config.DefaultImportOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	if opts.Encoding != "" {
		if err := config.SetEncoding(opts.Encoding); err != nil {
			return nil, nil, err
		}
	}
	if progress == nil {
		progress = func(float32) {}
	}
	return opts, progress, nil
}

// Import binds the file at path and imports it. Binding covers the first
// half of the reported progress.
func Import(ctx context.Context, path string, opts *config.ImportOptions, progress ProgressFunc, sink diag.Sink) (*Collection, error) {
	opts, progress, err := prepare(opts, progress)
	if err != nil {
		return nil, err
	}

	doc, err := collada.Load(ctx, path, collada.BindOptions{
		Ignore:   opts.Ignore,
		Progress: func(p float32) { progress(p * 0.5) },
	})
	if err != nil {
		return nil, err
	}
	return ImportDocument(ctx, doc, opts, func(p float32) { progress(0.5 + p*0.5) }, sink)
}

// ImportReader imports a document that does not live on disk, such as an
// upload. name only sets the model name, relative texture paths stay
// unresolved. size may be 0 when unknown.
func ImportReader(ctx context.Context, r io.Reader, name string, size int64, opts *config.ImportOptions, progress ProgressFunc, sink diag.Sink) (*Collection, error) {
	opts, progress, err := prepare(opts, progress)
	if err != nil {
		return nil, err
	}

	doc, err := collada.Decode(ctx, r, "", collada.BindOptions{
		Ignore:   opts.Ignore,
		Progress: func(p float32) { progress(p * 0.5) },
		Size:     size,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load %q", name)
	}
	col, err := ImportDocument(ctx, doc, opts, func(p float32) { progress(0.5 + p*0.5) }, sink)
	if col != nil {
		for _, s := range col.Scenes {
			s.ModelName = modelName(name)
		}
	}
	return col, err
}

type entry struct {
	scene  *Scene
	walker *walker
	visual collada.Handle
	object *object
}

// visualScenes lists the instantiated visual scenes, or every visual scene
// of the libraries when the document has no <scene>.
func visualScenes(res *resolver.Resolver, sink diag.Sink) []collada.Handle {
	doc := res.Document()
	result := make([]collada.Handle, 0, 1)
	if scene := doc.Scene(); scene != nil {
		for _, uri := range scene.VisualScenes {
			h, err := res.Lookup(uri, collada.KindVisualScene)
			if err != nil {
				warnRef(sink, "scene", err)
				continue
			}
			result = append(result, h)
		}
		return result
	}
	diag.Infof(sink, "scene", "Document has no <scene>, importing every visual scene")
	for _, lib := range doc.Libraries("library_visual_scenes") {
		result = append(result, doc.Children(lib, collada.KindVisualScene)...)
	}
	return result
}

func modelName(path string) string {
	if path == "" {
		return "model"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImportDocument walks every visual scene and decodes the collected objects
// on opts.Workers goroutines. On cancellation it returns the scenes with the
// sub meshes completed before the first unfinished one, plus ctx.Err().
func ImportDocument(ctx context.Context, doc *collada.Document, opts *config.ImportOptions, progress ProgressFunc, sink diag.Sink) (*Collection, error) {
	if opts == nil {
		opts = config.DefaultImportOptions()
	}
	if sink == nil {
		sink = diag.Discard
	}
	if progress == nil {
		progress = func(float32) {}
	}

	res := resolver.New(doc)
	base := BaseTransform(doc.Asset(), opts.InitialTransform)
	baseDir := ""
	if doc.Path != "" {
		if abs, err := filepath.Abs(filepath.Dir(doc.Path)); err == nil {
			baseDir = abs
		}
	}

	col := &Collection{Scenes: make([]*Scene, 0)}
	work := make([]entry, 0)
	for _, vs := range visualScenes(res, sink) {
		w := newWalker(res, opts.Ignore, sink)
		w.walkScene(vs, base)

		scene := &Scene{ModelName: modelName(doc.Path), SubMeshes: make([]*SubMesh, 0)}
		hasBones := w.skeleton.Len() != 0
		if hasBones {
			scene.Skeleton = w.skeleton
		}
		for _, obj := range w.objects {
			if obj.skinned() && !hasBones {
				diag.Warnf(sink, diag.CodeSkinWithoutSkeleton, obj.name,
					"Object %s uses bones but the model has none. Skipping this object.", obj.name)
				continue
			}
			work = append(work, entry{scene: scene, walker: w, visual: vs, object: obj})
		}
		col.Scenes = append(col.Scenes, scene)
	}

	results, logs, completed := decodeAll(ctx, work, opts, baseDir, progress)

	for i := 0; i < completed; i++ {
		logs[i].FlushTo(sink)
		if results[i] != nil {
			work[i].scene.SubMeshes = append(work[i].scene.SubMeshes, results[i])
		}
	}

	if completed < len(work) {
		if err := ctx.Err(); err != nil {
			return col, err
		}
		return col, errors.Errorf("Import stopped after %d of %d objects", completed, len(work))
	}
	progress(1)
	return col, nil
}

// decodeAll runs the worker pool. completed is the length of the worklist
// prefix that was fully decoded.
func decodeAll(ctx context.Context, work []entry, opts *config.ImportOptions, baseDir string, progress ProgressFunc) ([]*SubMesh, []*diag.Log, int) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*SubMesh, len(work))
	logs := make([]*diag.Log, len(work))
	done := make([]bool, len(work))
	var processed int64

	itemChan := make(chan int, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range itemChan {
				if ctx.Err() != nil {
					continue
				}
				e := work[idx]
				logs[idx] = diag.NewLog()
				results[idx] = e.walker.decodeObject(e.object, e.visual, opts, baseDir, logs[idx])
				done[idx] = true

				p := atomic.AddInt64(&processed, 1)
				progress(float32(p) / float32(len(work)))
			}
		}()
	}

send:
	for i := range work {
		select {
		case itemChan <- i:
		case <-ctx.Done():
			break send
		}
	}
	close(itemChan)
	wg.Wait()

	completed := 0
	for completed < len(work) && done[completed] {
		completed++
	}
	return results, logs, completed
}
