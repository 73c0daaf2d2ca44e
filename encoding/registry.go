package encoding

import (
	"encoding/gob"

	"github.com/pkg/errors"

	"github.com/hscells/loom/definition"
)

var registry = map[string]func() Encoder{}

// Register adds an encoder constructor to the registry under a key. Column
// types are registered under their type name; alternative encoders register
// under any other key and are selected via FeatureSpec.Encoder.
func Register(key string, constructor func() Encoder) {
	registry[key] = constructor
	gob.Register(constructor())
}

// New constructs the encoder for a feature spec: the spec's named encoder if
// it sets one, otherwise the default encoder for the column type.
func New(spec definition.FeatureSpec) (Encoder, error) {
	key := string(spec.Type)
	if len(spec.Encoder) > 0 {
		key = spec.Encoder
	}
	constructor, ok := registry[key]
	if !ok {
		return nil, errors.Errorf("no encoder registered for %q (column %s)", key, spec.Name)
	}
	return constructor(), nil
}

func init() {
	Register(string(definition.Numeric), func() Encoder { return NewNumericEncoder() })
	Register(string(definition.Categorical), func() Encoder { return NewOneHotEncoder() })
}
