package material

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type codec struct {
	name   string
	config func(io.Reader) (image.Config, error)
	decode func(io.Reader) (image.Image, error)
}

// tga has no magic and accepts almost anything, so it goes last.
var codecs = []codec{
	{"png", png.DecodeConfig, png.Decode},
	{"jpeg", jpeg.DecodeConfig, jpeg.Decode},
	{"gif", gif.DecodeConfig, gif.Decode},
	{"bmp", bmp.DecodeConfig, bmp.Decode},
	{"tiff", tiff.DecodeConfig, tiff.Decode},
	{"webp", webp.DecodeConfig, webp.Decode},
	{"tga", tga.DecodeConfig, tga.Decode},
}

func codecByName(name string) *codec {
	for i := range codecs {
		if codecs[i].name == name {
			return &codecs[i]
		}
	}
	return nil
}

// SniffFormat names the image format of data, empty when unknown.
func SniffFormat(data []byte) string {
	for _, c := range codecs {
		if _, err := c.config(bytes.NewReader(data)); err == nil {
			return c.name
		}
	}
	return ""
}

var extFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
	".webp": "webp",
	".tga":  "tga",
}

func formatFromExt(path string) string {
	return extFormats[strings.ToLower(filepath.Ext(path))]
}

// ReadTexture returns the raw bytes of a texture, embedded or from disk.
func ReadTexture(ref *TextureRef) ([]byte, error) {
	if len(ref.Data) != 0 {
		return ref.Data, nil
	}
	if ref.Path == "" {
		return nil, errors.Errorf("Texture of %s has neither data nor path", ref.Channel)
	}
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read texture '%s'", ref.Path)
	}
	return data, nil
}

// LoadImage decodes a texture, trying the declared format first.
func LoadImage(ref *TextureRef) (image.Image, string, error) {
	data, err := ReadTexture(ref)
	if err != nil {
		return nil, "", err
	}
	return DecodeImage(data, ref.Format)
}

func DecodeImage(data []byte, hint string) (image.Image, string, error) {
	if c := codecByName(hint); c != nil {
		if img, err := c.decode(bytes.NewReader(data)); err == nil {
			return img, c.name, nil
		}
	}
	format := SniffFormat(data)
	c := codecByName(format)
	if c == nil {
		return nil, "", errors.Errorf("Unknown image format (hint '%s')", hint)
	}
	img, err := c.decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrapf(err, "Failed to decode %s image", format)
	}
	return img, format, nil
}
