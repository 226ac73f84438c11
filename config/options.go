package config

import (
	"io/ioutil"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// InitialTransform is applied to the whole scene before the unit and up-axis
// conversion. Rotation is XYZ euler angles in degrees.
type InitialTransform struct {
	Translation [3]float32 `yaml:"translation"`
	Rotation    [3]float32 `yaml:"rotation"`
	Scale       [3]float32 `yaml:"scale"`
}

func (t InitialTransform) Matrix() mgl32.Mat4 {
	toRad := float32(math.Pi / 180.0)
	q := mgl32.AnglesToQuat(t.Rotation[0]*toRad, t.Rotation[1]*toRad, t.Rotation[2]*toRad, mgl32.XYZ)
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

type ImportOptions struct {
	GenerateBinormals bool             `yaml:"generate_binormals"`
	GenerateTangents  bool             `yaml:"generate_tangents"`
	InvertTexCoordY   bool             `yaml:"invert_texcoord_y"`
	InitialTransform  InitialTransform `yaml:"initial_transform"`
	Ignore            IgnoreFlags      `yaml:"ignore"`
	Workers           int              `yaml:"workers"`
	Encoding          string           `yaml:"encoding"`
}

func DefaultImportOptions() *ImportOptions {
	return &ImportOptions{
		GenerateBinormals: true,
		GenerateTangents:  true,
		InitialTransform: InitialTransform{
			Scale: [3]float32{1, 1, 1},
		},
	}
}

// ParseImportOptions reads YAML on top of the defaults, so omitted keys keep
// their default values.
func ParseImportOptions(data []byte) (*ImportOptions, error) {
	opts := DefaultImportOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse import options")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func LoadImportOptions(path string) (*ImportOptions, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read options %q", path)
	}
	opts, err := ParseImportOptions(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid options file %q", path)
	}
	return opts, nil
}

func (o *ImportOptions) Validate() error {
	if o.Workers < 0 {
		return errors.Errorf("Workers count can't be negative: %d", o.Workers)
	}
	if o.Encoding != "" && findCharmap(o.Encoding) == nil {
		return errors.Errorf("Failed to find encoding %q", o.Encoding)
	}
	return nil
}

func (o *ImportOptions) Marshal() ([]byte, error) {
	return yaml.Marshal(o)
}
