package cmsdb

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Patch is a partial update: top-level JSON field names mapped to their new
// values. Keys that are not fields of the record are ignored. A null value
// resets the field to its zero value.
type Patch map[string]any

// immutableKeys are never taken from a patch.
var immutableKeys = []string{"id", "createdAt"}

// without returns a copy of p minus keys.
func (p Patch) without(keys ...string) Patch {
	out := make(Patch, len(p))

	for k, v := range p {
		if !slices.Contains(keys, k) {
			out[k] = v
		}
	}

	return out
}

// mergePatch overlays patch on cur at the top level of its JSON form.
// A value that does not fit the field's type is an [ErrValidation].
func mergePatch[E any](cur E, patch Patch, protected ...string) (E, error) {
	var zero E

	data, err := json.Marshal(cur)
	if err != nil {
		return zero, fmt.Errorf("encode record: %w", err)
	}

	fields := map[string]json.RawMessage{}

	err = json.Unmarshal(data, &fields)
	if err != nil {
		return zero, fmt.Errorf("decode record: %w", err)
	}

	for k, v := range patch {
		if slices.Contains(protected, k) {
			continue
		}

		raw, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("%w: field %q: %w", ErrValidation, k, err)
		}

		fields[k] = raw
	}

	data, err = json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("encode merged record: %w", err)
	}

	var out E

	err = json.Unmarshal(data, &out)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return out, nil
}
