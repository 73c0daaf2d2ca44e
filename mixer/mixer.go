// Package mixer holds the trainable model abstraction of the pipeline. A
// mixer fits against a data source's encoded input columns to predict its
// encoded output columns, streaming one fit-state snapshot per training
// iteration over a channel, and later runs inference against any data source
// that shares the training encoders.
package mixer

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/hscells/loom/datasource"
	"github.com/hscells/loom/frame"
)

// NotFittedError indicates Predict was called before any fit iteration
// completed.
var NotFittedError = errors.New("mixer has not been fitted")

// ResultType is the type of result being returned through a fit channel.
type ResultType uint8

const (
	// Iteration is a completed training iteration.
	Iteration ResultType = iota
	// Error indicates the fit was aborted.
	Error
	// Done indicates the fit has completed and the mixer is trained.
	Done
)

// FitResult is one snapshot of an iterative fit.
type FitResult struct {
	Iteration   int
	Loss        float64
	HoldoutLoss float64
	Type        ResultType
	Error       error
}

// Prediction is the model output for one column: the raw numeric output of
// the model, and the same values decoded back into the column's native
// domain.
type Prediction struct {
	Encoded *tensor.Dense
	Actual  frame.Column
}

// Mixer is an iteratively fitted predictive model.
//
// IterFit streams one FitResult per training iteration and closes the channel
// when fitting completes or aborts; a caller must drain the channel, and
// observing a Done result means the mixer holds a fitted model. Calling
// IterFit again restarts the fit from scratch. Predict runs inference and
// stores its result as the mixer's current output predictions, overwriting
// any previous ones.
type Mixer interface {
	IterFit(ds *datasource.DataSource, c chan FitResult)
	Predict(ds *datasource.DataSource) (map[string]Prediction, error)
	OutputPredictions() map[string]Prediction
}

// HoldoutMixer is implemented by mixers that can observe held-out test and
// validation data during fitting. Holdout data sources must reuse the
// training encoders; they are never trained on.
type HoldoutMixer interface {
	Mixer
	SetHoldout(test, validation *datasource.DataSource)
}

// designMatrix concatenates the encoded tensors of the given columns into one
// row-major matrix of rows × total width.
func designMatrix(ds *datasource.DataSource, columns []string) ([]float64, int, int, error) {
	var (
		parts  = make([][]float64, len(columns))
		widths = make([]int, len(columns))
		rows   = -1
		width  int
	)
	for i, name := range columns {
		t, err := ds.EncodedColumn(name)
		if err != nil {
			return nil, 0, 0, err
		}
		shape := t.Shape()
		data, ok := t.Data().([]float64)
		if !ok {
			return nil, 0, 0, errors.Errorf("column %s is backed by %T, want []float64", name, t.Data())
		}
		if rows == -1 {
			rows = shape[0]
		} else if shape[0] != rows {
			return nil, 0, 0, errors.Errorf("column %s has %d rows, want %d", name, shape[0], rows)
		}
		parts[i] = data
		widths[i] = shape[1]
		width += shape[1]
	}
	if rows == -1 {
		rows = 0
	}
	out := make([]float64, rows*width)
	for r := 0; r < rows; r++ {
		offset := 0
		for i, part := range parts {
			copy(out[r*width+offset:], part[r*widths[i]:(r+1)*widths[i]])
			offset += widths[i]
		}
	}
	return out, rows, width, nil
}

// decodePrediction wraps raw model output for one column into a Prediction,
// decoding it through the column's encoder from the given data source.
func decodePrediction(ds *datasource.DataSource, column string, data []float64, rows, width int) (Prediction, error) {
	t := tensor.New(tensor.WithShape(rows, width), tensor.WithBacking(data))
	enc, err := ds.Encoder(column)
	if err != nil {
		return Prediction{}, err
	}
	actual, err := enc.Decode(t)
	if err != nil {
		return Prediction{}, errors.Wrapf(err, "decoding predictions for column %s", column)
	}
	return Prediction{Encoded: t, Actual: actual}, nil
}
