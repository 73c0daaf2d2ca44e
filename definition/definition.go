// Package definition describes the declarative shape of a predictive task: which
// columns go in, which come out, and how each one should be encoded.
package definition

import (
	"fmt"

	"github.com/pkg/errors"
)

// ColumnType is the semantic type of a feature column.
type ColumnType string

const (
	// Numeric columns hold continuous values.
	Numeric ColumnType = "numeric"
	// Categorical columns hold values from a closed set of categories.
	Categorical ColumnType = "categorical"
)

// FeatureSpec configures a single feature column. Encoder optionally names a
// registered encoder to use in place of the default for Type.
type FeatureSpec struct {
	Name    string     `json:"name" toml:"name"`
	Type    ColumnType `json:"type" toml:"type"`
	Encoder string     `json:"encoder,omitempty" toml:"encoder"`
}

// Definition declares the input and output feature columns of one predictive
// task. A Definition is read-only after Validate has accepted it.
type Definition struct {
	Name           string        `json:"name" toml:"name"`
	InputFeatures  []FeatureSpec `json:"input_features" toml:"input_features"`
	OutputFeatures []FeatureSpec `json:"output_features" toml:"output_features"`
}

// NewDefinition creates a definition from input and output feature specs.
func NewDefinition(name string, input, output []FeatureSpec) Definition {
	return Definition{Name: name, InputFeatures: input, OutputFeatures: output}
}

// Validate checks a definition against the schema contract: a non-empty name,
// at least one input and one output feature, every feature carrying a name and
// a known type, and feature names unique across the union of inputs and
// outputs. The first violation found is returned.
func (d Definition) Validate() error {
	if len(d.Name) == 0 {
		return errors.New("definition requires a name")
	}
	if len(d.InputFeatures) == 0 {
		return errors.Errorf("definition %s requires at least one input feature", d.Name)
	}
	if len(d.OutputFeatures) == 0 {
		return errors.Errorf("definition %s requires at least one output feature", d.Name)
	}
	seen := make(map[string]bool)
	for _, f := range append(append([]FeatureSpec{}, d.InputFeatures...), d.OutputFeatures...) {
		if err := f.validate(); err != nil {
			return errors.Wrapf(err, "definition %s", d.Name)
		}
		if seen[f.Name] {
			return errors.Errorf("definition %s declares feature %s more than once", d.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func (f FeatureSpec) validate() error {
	if len(f.Name) == 0 {
		return errors.New("feature requires a name")
	}
	switch f.Type {
	case Numeric, Categorical:
	default:
		return errors.Errorf("feature %s has unknown type %q", f.Name, f.Type)
	}
	return nil
}

// Feature looks up a feature spec by column name across the input and output
// features of the definition.
func (d Definition) Feature(name string) (FeatureSpec, bool) {
	for _, f := range d.InputFeatures {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range d.OutputFeatures {
		if f.Name == name {
			return f, true
		}
	}
	return FeatureSpec{}, false
}

// InputColumns returns the declared input column names in order.
func (d Definition) InputColumns() []string {
	return columnNames(d.InputFeatures)
}

// OutputColumns returns the declared output column names in order.
func (d Definition) OutputColumns() []string {
	return columnNames(d.OutputFeatures)
}

func columnNames(ff []FeatureSpec) []string {
	names := make([]string, len(ff))
	for i, f := range ff {
		names[i] = f.Name
	}
	return names
}

func (d Definition) String() string {
	return fmt.Sprintf("%s (%d in, %d out)", d.Name, len(d.InputFeatures), len(d.OutputFeatures))
}
