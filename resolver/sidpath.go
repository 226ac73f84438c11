package resolver

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/daeimport/collada"
)

// Target is the element a SID path points at. Selector is the member or
// index suffix of the last segment, such as ".X" or "(3)(0)", left for the
// caller to apply.
type Target struct {
	Handle   collada.Handle
	Selector string
}

func splitSelector(segment string) (string, string) {
	if i := strings.IndexByte(segment, '.'); i >= 0 {
		return segment[:i], segment[i:]
	}
	if i := strings.IndexByte(segment, '('); i >= 0 {
		return segment[:i], segment[i:]
	}
	return segment, ""
}

func (r *Resolver) ResolveSIDPath(path string) (Target, error) {
	return r.ResolveSIDPathFrom(collada.NoHandle, path)
}

// ResolveSIDPathFrom allows a leading "." segment meaning origin.
func (r *Resolver) ResolveSIDPathFrom(origin collada.Handle, path string) (Target, error) {
	parts := strings.Split(path, "/")

	var current collada.Handle
	selector := ""
	if parts[0] == "." {
		if origin == collada.NoHandle {
			return Target{}, errors.Wrapf(ErrUnresolvedReference, "relative path %q without origin", path)
		}
		current = origin
	} else {
		// ids may contain dots, so the whole segment is tried first
		candidates := r.doc.ByID(parts[0])
		if len(candidates) == 0 {
			var id string
			id, selector = splitSelector(parts[0])
			candidates = r.doc.ByID(id)
		}
		switch len(candidates) {
		case 0:
			return Target{}, errors.Wrapf(ErrUnresolvedReference, "id of path %q not found", path)
		case 1:
			current = candidates[0]
		default:
			return Target{}, errors.Wrapf(ErrAmbiguousReference, "id of path %q has %d elements", path, len(candidates))
		}
	}

	for _, part := range parts[1:] {
		selector = ""
		next := r.scopedChild(current, part)
		if next == collada.NoHandle {
			var sid string
			sid, selector = splitSelector(part)
			next = r.scopedChild(current, sid)
		}
		if next == collada.NoHandle {
			return Target{}, errors.Wrapf(ErrUnresolvedReference, "segment %q of path %q not found", part, path)
		}
		current = next
	}

	return Target{Handle: current, Selector: selector}, nil
}

func (r *Resolver) scopedChild(h collada.Handle, sid string) collada.Handle {
	e := r.doc.Element(h)
	if e == nil {
		return collada.NoHandle
	}
	for _, c := range e.Scoped {
		if r.doc.Element(c).SID == sid {
			return c
		}
	}
	return collada.NoHandle
}

// FindSID searches the subtree under root depth first for an element with
// the sid. Unlike SID paths it is not limited to registered scopes, which
// is what skin joint names expect.
func (r *Resolver) FindSID(root collada.Handle, sid string) collada.Handle {
	e := r.doc.Element(root)
	if e == nil {
		return collada.NoHandle
	}
	if e.SID == sid {
		return root
	}
	for _, c := range e.Children {
		if found := r.FindSID(c, sid); found != collada.NoHandle {
			return found
		}
	}
	return collada.NoHandle
}
