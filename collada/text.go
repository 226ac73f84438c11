package collada

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func parseFloats(text string) ([]float32, error) {
	fields := strings.Fields(text)
	result := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			// exporters write things like 1.#QNAN or -1.#IND
			if strings.Contains(f, "#") {
				continue
			}
			return nil, errors.Wrapf(err, "Failed to parse float %q at %d", f, i)
		}
		result[i] = float32(v)
	}
	return result, nil
}

func parseInts(text string) ([]int, error) {
	fields := strings.Fields(text)
	result := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse int %q at %d", f, i)
		}
		result[i] = v
	}
	return result, nil
}

func parseBools(text string) ([]int, error) {
	fields := strings.Fields(text)
	result := make([]int, len(fields))
	for i, f := range fields {
		switch f {
		case "true", "1":
			result[i] = 1
		case "false", "0":
		default:
			return nil, errors.Errorf("Failed to parse bool %q at %d", f, i)
		}
	}
	return result, nil
}

func atoiDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def, errors.Wrapf(err, "Failed to parse integer attribute %q", s)
	}
	return v, nil
}

func parseHex(text string) ([]byte, error) {
	clean := strings.Join(strings.Fields(text), "")
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode hex data")
	}
	return data, nil
}
