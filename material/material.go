// Package material resolves COLLADA materials into shading parameters and
// texture references.
package material

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/daeimport/collada"
	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/resolver"
)

const UnnamedMaterial = "Unnamed Material"

// Channel names as they appear in profile_COMMON techniques.
const (
	ChannelEmission    = "emission"
	ChannelAmbient     = "ambient"
	ChannelDiffuse     = "diffuse"
	ChannelSpecular    = "specular"
	ChannelReflective  = "reflective"
	ChannelTransparent = "transparent"
)

type TextureRef struct {
	Channel  string
	TexCoord string
	// Path is absolute, empty for embedded images.
	Path   string
	Data   []byte
	Format string
}

type Material struct {
	Name string
	// Shading is the technique model: constant, lambert, phong or blinn.
	Shading  string
	Diffuse  mgl32.Vec4
	Colors   map[string]mgl32.Vec4
	Floats   map[string]float32
	Textures []TextureRef
}

func (m *Material) Texture(channel string) *TextureRef {
	for i := range m.Textures {
		if m.Textures[i].Channel == channel {
			return &m.Textures[i]
		}
	}
	return nil
}

func newMaterial(name string) *Material {
	return &Material{
		Name:     name,
		Diffuse:  mgl32.Vec4{1, 1, 1, 1},
		Colors:   make(map[string]mgl32.Vec4),
		Floats:   make(map[string]float32),
		Textures: make([]TextureRef, 0),
	}
}

// Resolve follows material -> effect -> profile_COMMON. It returns nil only
// when the material itself cannot be found; a broken effect still yields a
// named material with default shading.
func Resolve(res *resolver.Resolver, materialURI, baseDir string, sink diag.Sink) *Material {
	if sink == nil {
		sink = diag.Discard
	}
	doc := res.Document()

	h, err := res.Lookup(materialURI, collada.KindMaterial)
	if err != nil {
		diag.Warnf(sink, codeOf(err), materialURI, "Material: %v", err)
		return nil
	}
	el := doc.Element(h)
	name := UnnamedMaterial
	if el.HasName() {
		name = el.Name
	} else if el.HasID() {
		name = el.ID
	}
	result := newMaterial(name)

	effectHandle, err := res.Lookup(doc.Material(h).Effect, collada.KindEffect)
	if err != nil {
		diag.Warnf(sink, codeOf(err), name, "Effect: %v", err)
		return result
	}
	profile := doc.ProfileCommon(doc.Effect(effectHandle).Profile)
	if profile == nil || profile.Shading == nil {
		diag.Infof(sink, name, "Effect has no profile_COMMON technique, default shading used")
		return result
	}
	result.Shading = profile.Shading.Model

	for _, ch := range profile.Shading.Channels {
		if ch.Color != nil {
			result.Colors[ch.Name] = *ch.Color
			if ch.Name == ChannelDiffuse {
				result.Diffuse = *ch.Color
			}
		}
		if ch.Float != nil {
			result.Floats[ch.Name] = *ch.Float
		}
		if ch.Texture == nil {
			continue
		}
		img, err := findImage(res, effectHandle, ch.Texture.Texture)
		if err != nil {
			diag.Warnf(sink, codeOf(err), name, "Texture %q of %s: %v", ch.Texture.Texture, ch.Name, err)
			continue
		}
		ref := TextureRef{
			Channel:  ch.Name,
			TexCoord: ch.Texture.TexCoord,
			Data:     img.Data,
			Format:   img.Format,
		}
		if img.InitFrom != "" {
			ref.Path = ResolvePath(img.InitFrom, baseDir)
		}
		if len(ref.Data) != 0 {
			if f := SniffFormat(ref.Data); f != "" {
				ref.Format = f
			}
		} else if ref.Format == "" {
			ref.Format = formatFromExt(ref.Path)
		}
		result.Textures = append(result.Textures, ref)
	}
	return result
}

// findImage resolves the texture attribute of a channel: a sampler newparam
// of the effect, which names a surface newparam or an image instance, or
// directly an image id.
func findImage(res *resolver.Resolver, effect collada.Handle, texture string) (*collada.Image, error) {
	doc := res.Document()
	effectID := doc.Element(effect).ID

	if target, err := res.ResolveSIDPath(effectID + "/" + texture); err == nil {
		if np := doc.NewParam(target.Handle); np != nil && np.Sampler != nil {
			if np.Sampler.Image != "" {
				h, err := res.Lookup(np.Sampler.Image, collada.KindImage)
				if err != nil {
					return nil, err
				}
				return doc.Image(h), nil
			}
			surfaceTarget, err := res.ResolveSIDPath(effectID + "/" + np.Sampler.Source)
			if err != nil {
				return nil, err
			}
			surface := doc.NewParam(surfaceTarget.Handle)
			if surface == nil || surface.Surface == nil {
				return nil, errors.Wrapf(resolver.ErrUnresolvedReference, "sampler source %q is not a surface", np.Sampler.Source)
			}
			h, err := res.Lookup("#"+surface.Surface.InitFrom, collada.KindImage)
			if err != nil {
				return nil, err
			}
			return doc.Image(h), nil
		}
	}

	h, err := res.Lookup("#"+texture, collada.KindImage)
	if err != nil {
		return nil, err
	}
	return doc.Image(h), nil
}

func codeOf(err error) diag.Code {
	if resolver.IsAmbiguous(err) {
		return diag.CodeAmbiguousReference
	}
	return diag.CodeUnresolvedReference
}

// ResolvePath turns an init_from uri into a filesystem path.
func ResolvePath(uri, baseDir string) string {
	p := uri
	for _, prefix := range []string{"file://", "file:"} {
		if strings.HasPrefix(p, prefix) {
			p = p[len(prefix):]
			break
		}
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	// file:///C:/dir keeps a slash before the drive letter
	if len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	p = filepath.FromSlash(p)
	if !filepath.IsAbs(p) && !isDrivePath(p) && baseDir != "" {
		p = filepath.Join(baseDir, p)
	}
	return filepath.Clean(p)
}

func isDrivePath(p string) bool {
	return len(p) > 1 && p[1] == ':'
}
