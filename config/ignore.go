package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// IgnoreFlags selects element categories the binder skips entirely.
type IgnoreFlags uint32

const (
	IgnoreNone        IgnoreFlags = 0
	IgnoreAsset       IgnoreFlags = 1
	IgnoreExtra       IgnoreFlags = 2
	IgnoreControllers IgnoreFlags = 4
	IgnoreGeometry    IgnoreFlags = 8
	IgnoreAnimations  IgnoreFlags = 16
	IgnoreCameras     IgnoreFlags = 32
	IgnoreLights      IgnoreFlags = 64
)

var ignoreNames = []struct {
	name string
	flag IgnoreFlags
}{
	{"asset", IgnoreAsset},
	{"extra", IgnoreExtra},
	{"controllers", IgnoreControllers},
	{"geometry", IgnoreGeometry},
	{"animations", IgnoreAnimations},
	{"cameras", IgnoreCameras},
	{"lights", IgnoreLights},
}

func (f IgnoreFlags) Has(flag IgnoreFlags) bool {
	return f&flag != 0
}

func (f IgnoreFlags) Names() []string {
	names := make([]string, 0)
	for _, n := range ignoreNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return names
}

func (f IgnoreFlags) String() string {
	if f == IgnoreNone {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}

func ParseIgnoreFlag(name string) (IgnoreFlags, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "none" || name == "" {
		return IgnoreNone, nil
	}
	for _, n := range ignoreNames {
		if n.name == name {
			return n.flag, nil
		}
	}
	return IgnoreNone, errors.Errorf("Unknown ignore category %q", name)
}

// ParseIgnoreFlags accepts a comma or pipe separated list of category names.
func ParseIgnoreFlags(list string) (IgnoreFlags, error) {
	var result IgnoreFlags
	for _, part := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == '|' }) {
		flag, err := ParseIgnoreFlag(part)
		if err != nil {
			return IgnoreNone, err
		}
		result |= flag
	}
	return result, nil
}

func (f *IgnoreFlags) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		flags, err := ParseIgnoreFlags(value.Value)
		if err != nil {
			return err
		}
		*f = flags
	case yaml.SequenceNode:
		var result IgnoreFlags
		for _, item := range value.Content {
			flag, err := ParseIgnoreFlag(item.Value)
			if err != nil {
				return err
			}
			result |= flag
		}
		*f = result
	default:
		return errors.Errorf("Ignore flags must be a list or a string, line %d", value.Line)
	}
	return nil
}

func (f IgnoreFlags) MarshalYAML() (interface{}, error) {
	return f.Names(), nil
}
