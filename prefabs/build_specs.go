package prefabs

import "gopkg.in/yaml.v3"

// DecodeArg converts a loosely typed YAML value (as produced by decoding into
// any) into T.
func DecodeArg[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}
