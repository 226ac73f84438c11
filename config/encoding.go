package config

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

var currentCharMap *charmap.Charmap = charmap.Windows1252

// SetEncoding selects the charmap used for documents that declare no
// encoding the xml package understands.
func SetEncoding(name string) error {
	cm := findCharmap(name)
	if cm == nil {
		return errors.Errorf("Failed to find encoding %q", name)
	}
	currentCharMap = cm
	return nil
}

func ListEncodings() []string {
	list := make([]string, 0)
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	return currentCharMap
}

func findCharmap(name string) *charmap.Charmap {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if strings.EqualFold(cm.String(), name) {
				return cm
			}
		}
	}
	return nil
}

// CharsetReader is plugged into xml.Decoder. Names are looked up in the
// charmap table first and then in the IANA registry; an empty name falls
// back to the selected encoding.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	var enc encoding.Encoding
	if label == "" {
		enc = currentCharMap
	} else if cm := findCharmap(label); cm != nil {
		enc = cm
	} else {
		var err error
		enc, err = ianaindex.IANA.Encoding(label)
		if err != nil {
			return nil, errors.Wrapf(err, "Unknown charset %q", label)
		}
		if enc == nil {
			return nil, errors.Errorf("Unsupported charset %q", label)
		}
	}
	return enc.NewDecoder().Reader(input), nil
}
