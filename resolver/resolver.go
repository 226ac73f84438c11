// Package resolver looks up URI and SID path references in a bound document.
// It never modifies the document and may be used from many goroutines.
package resolver

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/daeimport/collada"
)

var (
	ErrAmbiguousReference  = errors.New("ambiguous reference")
	ErrUnresolvedReference = errors.New("unresolved reference")
)

func IsAmbiguous(err error) bool {
	return errors.Cause(err) == ErrAmbiguousReference
}

func IsUnresolved(err error) bool {
	return errors.Cause(err) == ErrUnresolvedReference
}

type Resolver struct {
	doc *collada.Document
}

func New(doc *collada.Document) *Resolver {
	return &Resolver{doc: doc}
}

func (r *Resolver) Document() *collada.Document {
	return r.doc
}

func (r *Resolver) ResolveByID(id string) []collada.Handle {
	return r.doc.ByID(id)
}

// IsLocal reports whether uri points inside the current document.
func IsLocal(uri string) bool {
	return strings.HasPrefix(uri, "#")
}

// ResolveURI returns the single element of the kind the local uri points at.
// NoHandle without error means nothing matched; external uris never match.
func (r *Resolver) ResolveURI(uri string, kind collada.Kind) (collada.Handle, error) {
	if !IsLocal(uri) {
		return collada.NoHandle, nil
	}
	id := uri[1:]

	found := collada.NoHandle
	for _, h := range r.doc.ByID(id) {
		if kind != collada.KindAny && r.doc.Kind(h) != kind {
			continue
		}
		if found != collada.NoHandle {
			return collada.NoHandle, errors.Wrapf(ErrAmbiguousReference, "%q matches more than one %v", uri, kind)
		}
		found = h
	}
	return found, nil
}

// Lookup is ResolveURI where a miss is an error.
func (r *Resolver) Lookup(uri string, kind collada.Kind) (collada.Handle, error) {
	h, err := r.ResolveURI(uri, kind)
	if err != nil {
		return collada.NoHandle, err
	}
	if h == collada.NoHandle {
		if !IsLocal(uri) {
			return collada.NoHandle, errors.Wrapf(ErrUnresolvedReference, "external reference %q is not supported", uri)
		}
		return collada.NoHandle, errors.Wrapf(ErrUnresolvedReference, "%q does not name a %v", uri, kind)
	}
	return h, nil
}

// Source finds a <source> by uri, preferring direct children of container
// (a mesh, skin or morph) over the document-wide index.
func (r *Resolver) Source(container collada.Handle, uri string) (*collada.Source, error) {
	if !IsLocal(uri) {
		return nil, errors.Wrapf(ErrUnresolvedReference, "external source %q is not supported", uri)
	}
	id := uri[1:]
	for _, c := range r.doc.Children(container, collada.KindSource) {
		if r.doc.Element(c).ID == id {
			return r.doc.Source(c), nil
		}
	}
	h, err := r.Lookup(uri, collada.KindSource)
	if err != nil {
		return nil, err
	}
	return r.doc.Source(h), nil
}
