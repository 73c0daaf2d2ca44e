package encoding

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/hscells/loom/frame"
)

// NumericEncoder standardises a continuous column to zero mean and unit
// variance. The mean and deviation are fitted once, on training data, and
// reused verbatim for inference data. Fields are exported for gob.
type NumericEncoder struct {
	Mean     float64
	Scale    float64
	IsFitted bool
}

// NewNumericEncoder creates an unfitted numeric encoder.
func NewNumericEncoder() *NumericEncoder {
	return &NumericEncoder{}
}

// FitEncode fits the standardisation parameters to the column and encodes it.
func (e *NumericEncoder) FitEncode(col frame.Column) (*tensor.Dense, error) {
	values, err := col.Floats()
	if err != nil {
		return nil, errors.Wrap(err, "fitting numeric encoder")
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil, err
	}
	scale, err := stats.StandardDeviation(values)
	if err != nil {
		return nil, err
	}
	if scale == 0 {
		// A constant column still round-trips; it just doesn't scale.
		scale = 1
	}
	e.Mean = mean
	e.Scale = scale
	e.IsFitted = true
	return e.Encode(col)
}

// Encode standardises the column using the fitted parameters.
func (e *NumericEncoder) Encode(col frame.Column) (*tensor.Dense, error) {
	if !e.IsFitted {
		return nil, NotFittedEncodeError
	}
	values, err := col.Floats()
	if err != nil {
		return nil, errors.Wrap(err, "encoding numeric column")
	}
	data := make([]float64, len(values))
	for i, v := range values {
		data[i] = (v - e.Mean) / e.Scale
	}
	return matrix(data, len(values), 1), nil
}

// Decode inverts the standardisation.
func (e *NumericEncoder) Decode(t *tensor.Dense) (frame.Column, error) {
	if !e.IsFitted {
		return nil, NotFittedEncodeError
	}
	data, rows, err := tensorRows(t, 1)
	if err != nil {
		return nil, err
	}
	col := make(frame.Column, rows)
	for i := 0; i < rows; i++ {
		col[i] = data[i]*e.Scale + e.Mean
	}
	return col, nil
}

// Width returns the encoded width of the column, which is always one.
func (e *NumericEncoder) Width() int {
	return 1
}

// Fitted reports whether FitEncode has been called.
func (e *NumericEncoder) Fitted() bool {
	return e.IsFitted
}
