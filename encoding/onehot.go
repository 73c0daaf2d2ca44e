package encoding

import (
	"gorgonia.org/tensor"

	"github.com/hscells/loom/frame"
)

// OneHotEncoder encodes a categorical column as one-hot vectors over the
// categories seen at fit time, in first-seen order. Values unseen at fit time
// encode to the zero vector. Decoding maps each row to its nearest known
// category (the argmax). Fields are exported for gob.
type OneHotEncoder struct {
	Categories []string
	Index      map[string]int
	IsFitted   bool
}

// NewOneHotEncoder creates an unfitted one-hot encoder.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{Index: make(map[string]int)}
}

// FitEncode learns the category set from the column and encodes it.
func (e *OneHotEncoder) FitEncode(col frame.Column) (*tensor.Dense, error) {
	for _, v := range col.Strings() {
		if _, ok := e.Index[v]; !ok {
			e.Index[v] = len(e.Categories)
			e.Categories = append(e.Categories, v)
		}
	}
	e.IsFitted = true
	return e.Encode(col)
}

// Encode one-hot encodes the column against the fitted category set.
func (e *OneHotEncoder) Encode(col frame.Column) (*tensor.Dense, error) {
	if !e.IsFitted {
		return nil, NotFittedEncodeError
	}
	values := col.Strings()
	width := len(e.Categories)
	data := make([]float64, len(values)*width)
	for i, v := range values {
		if j, ok := e.Index[v]; ok {
			data[i*width+j] = 1
		}
	}
	return matrix(data, len(values), width), nil
}

// Decode maps each row of the tensor to the category with the largest value.
func (e *OneHotEncoder) Decode(t *tensor.Dense) (frame.Column, error) {
	if !e.IsFitted {
		return nil, NotFittedEncodeError
	}
	width := len(e.Categories)
	data, rows, err := tensorRows(t, width)
	if err != nil {
		return nil, err
	}
	col := make(frame.Column, rows)
	for i := 0; i < rows; i++ {
		best := 0
		for j := 1; j < width; j++ {
			if data[i*width+j] > data[i*width+best] {
				best = j
			}
		}
		col[i] = e.Categories[best]
	}
	return col, nil
}

// Width returns the encoded width, one dimension per fitted category.
func (e *OneHotEncoder) Width() int {
	return len(e.Categories)
}

// Fitted reports whether FitEncode has been called.
func (e *OneHotEncoder) Fitted() bool {
	return e.IsFitted
}
