// Package encoding maps raw feature columns to fixed-width numeric tensors and
// back. Each column type has a default encoder; alternatives are selected by
// registry key. Encoders fit themselves on the first column they see and must
// be reused, never re-fitted, for all later data so that training and
// inference share one numeric representation.
package encoding

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/hscells/loom/frame"
)

// ShapeMismatchError indicates a tensor passed to Decode does not have the
// width the encoder was fitted with.
var ShapeMismatchError = errors.New("tensor width does not match encoder width")

// NotFittedEncodeError indicates Encode or Decode was called on an encoder
// that has never been fitted.
var NotFittedEncodeError = errors.New("encoder has not been fitted")

// Encoder is a bidirectional mapping between a column's native values and a
// fixed-width numeric tensor. FitEncode establishes the fitted state; Encode
// must not alter it. Decode is the inverse mapping and is best-effort for
// lossy encodings.
type Encoder interface {
	FitEncode(col frame.Column) (*tensor.Dense, error)
	Encode(col frame.Column) (*tensor.Dense, error)
	Decode(t *tensor.Dense) (frame.Column, error)
	Width() int
	Fitted() bool
}

// matrix builds a rows×width float64 tensor from row-major data.
func matrix(data []float64, rows, width int) *tensor.Dense {
	return tensor.New(tensor.WithShape(rows, width), tensor.WithBacking(data))
}

// tensorRows pulls the backing data out of a tensor, checking that its width
// matches what the encoder expects.
func tensorRows(t *tensor.Dense, width int) ([]float64, int, error) {
	shape := t.Shape()
	if len(shape) != 2 || shape[1] != width {
		return nil, 0, errors.Wrapf(ShapeMismatchError, "got shape %v, want (*, %d)", shape, width)
	}
	data, ok := t.Data().([]float64)
	if !ok {
		return nil, 0, errors.Errorf("tensor backing is %T, want []float64", t.Data())
	}
	return data, shape[0], nil
}
