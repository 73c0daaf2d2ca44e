package mixer

import (
	"github.com/pkg/errors"

	"github.com/hscells/loom/datasource"
	"github.com/hscells/loom/eval"
)

// SGDMixer fits one linear model per output dimension by full-batch gradient
// descent over the encoded input columns. It is the default mixer: simple,
// deterministic, and serialisable. Model fields are exported for gob.
type SGDMixer struct {
	InputColumns  []string
	OutputColumns []string
	Epochs        int
	LearningRate  float64

	// Weights maps an output column to its weight matrix, laid out as
	// [output dimension][input dimension], with Bias holding the intercept
	// per output dimension.
	Weights  map[string][][]float64
	Bias     map[string][]float64
	InWidth  int
	IsFitted bool

	Predictions map[string]Prediction

	test       *datasource.DataSource
	validation *datasource.DataSource
}

// SGDOption configures an SGDMixer.
type SGDOption func(*SGDMixer)

// WithEpochs sets the number of fit iterations.
func WithEpochs(epochs int) SGDOption {
	return func(m *SGDMixer) {
		m.Epochs = epochs
	}
}

// WithLearningRate sets the gradient step size.
func WithLearningRate(lr float64) SGDOption {
	return func(m *SGDMixer) {
		m.LearningRate = lr
	}
}

// NewSGDMixer creates a gradient-descent mixer over the given input and
// output column names.
func NewSGDMixer(inputColumns, outputColumns []string, options ...SGDOption) *SGDMixer {
	m := &SGDMixer{
		InputColumns:  inputColumns,
		OutputColumns: outputColumns,
		Epochs:        200,
		LearningRate:  0.1,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// SetHoldout gives the mixer held-out data sources. Test data contributes a
// holdout loss to each fit snapshot; neither is trained on.
func (m *SGDMixer) SetHoldout(test, validation *datasource.DataSource) {
	m.test = test
	m.validation = validation
}

// IterFit trains the mixer against the data source, sending one FitResult per
// epoch and closing the channel once the model is fitted. Any failure aborts
// the whole fit with an Error result.
func (m *SGDMixer) IterFit(ds *datasource.DataSource, c chan FitResult) {
	defer close(c)

	// Restart from scratch; IterFit does not resume.
	m.IsFitted = false
	m.Weights = make(map[string][][]float64)
	m.Bias = make(map[string][]float64)

	x, rows, inWidth, err := designMatrix(ds, m.InputColumns)
	if err != nil {
		c <- FitResult{Error: err, Type: Error}
		return
	}
	if rows == 0 {
		c <- FitResult{Error: errors.New("no rows to fit"), Type: Error}
		return
	}
	m.InWidth = inWidth

	targets := make(map[string][]float64, len(m.OutputColumns))
	outWidths := make(map[string]int, len(m.OutputColumns))
	for _, column := range m.OutputColumns {
		y, yRows, width, err := designMatrix(ds, []string{column})
		if err != nil {
			c <- FitResult{Error: err, Type: Error}
			return
		}
		if yRows != rows {
			c <- FitResult{Error: errors.Errorf("output column %s has %d rows, want %d", column, yRows, rows), Type: Error}
			return
		}
		targets[column] = y
		outWidths[column] = width
		m.Weights[column] = zeros(width, inWidth)
		m.Bias[column] = make([]float64, width)
	}

	var holdout *holdoutSet
	if m.test != nil {
		holdout, err = m.newHoldoutSet(outWidths)
		if err != nil {
			c <- FitResult{Error: err, Type: Error}
			return
		}
	}

	for epoch := 0; epoch < m.Epochs; epoch++ {
		loss := 0.0
		for _, column := range m.OutputColumns {
			loss += m.step(x, targets[column], rows, outWidths[column], m.Weights[column], m.Bias[column])
		}
		loss /= float64(len(m.OutputColumns))

		result := FitResult{Iteration: epoch, Loss: loss, Type: Iteration}
		if holdout != nil {
			result.HoldoutLoss = m.holdoutLoss(holdout)
		}

		// At least one completed iteration leaves a usable model.
		m.IsFitted = true
		c <- result
	}

	c <- FitResult{Iteration: m.Epochs, Type: Done}
}

// step performs one full-batch gradient descent update for one output column
// and returns the batch MSE before the update.
func (m *SGDMixer) step(x, y []float64, rows, outWidth int, w [][]float64, b []float64) float64 {
	yhat := m.forward(x, rows, outWidth, w, b)

	gradW := zeros(outWidth, m.InWidth)
	gradB := make([]float64, outWidth)
	for r := 0; r < rows; r++ {
		for j := 0; j < outWidth; j++ {
			d := yhat[r*outWidth+j] - y[r*outWidth+j]
			for k := 0; k < m.InWidth; k++ {
				gradW[j][k] += d * x[r*m.InWidth+k]
			}
			gradB[j] += d
		}
	}
	n := float64(rows)
	for j := 0; j < outWidth; j++ {
		for k := 0; k < m.InWidth; k++ {
			w[j][k] -= m.LearningRate * gradW[j][k] / n
		}
		b[j] -= m.LearningRate * gradB[j] / n
	}
	return eval.MSE.Score(y, yhat)
}

func (m *SGDMixer) forward(x []float64, rows, outWidth int, w [][]float64, b []float64) []float64 {
	yhat := make([]float64, rows*outWidth)
	for r := 0; r < rows; r++ {
		for j := 0; j < outWidth; j++ {
			sum := b[j]
			for k := 0; k < m.InWidth; k++ {
				sum += w[j][k] * x[r*m.InWidth+k]
			}
			yhat[r*outWidth+j] = sum
		}
	}
	return yhat
}

type holdoutSet struct {
	x         []float64
	rows      int
	targets   map[string][]float64
	outWidths map[string]int
}

func (m *SGDMixer) newHoldoutSet(outWidths map[string]int) (*holdoutSet, error) {
	x, rows, width, err := designMatrix(m.test, m.InputColumns)
	if err != nil {
		return nil, errors.Wrap(err, "encoding test data")
	}
	if width != m.InWidth {
		return nil, errors.Errorf("test data encodes to width %d, want %d", width, m.InWidth)
	}
	targets := make(map[string][]float64, len(m.OutputColumns))
	for _, column := range m.OutputColumns {
		y, _, _, err := designMatrix(m.test, []string{column})
		if err != nil {
			return nil, errors.Wrap(err, "encoding test data")
		}
		targets[column] = y
	}
	return &holdoutSet{x: x, rows: rows, targets: targets, outWidths: outWidths}, nil
}

func (m *SGDMixer) holdoutLoss(h *holdoutSet) float64 {
	loss := 0.0
	for _, column := range m.OutputColumns {
		yhat := m.forward(h.x, h.rows, h.outWidths[column], m.Weights[column], m.Bias[column])
		loss += eval.MSE.Score(h.targets[column], yhat)
	}
	return loss / float64(len(m.OutputColumns))
}

// Predict runs inference against the data source's encoded input columns and
// decodes each output through the column's encoder. The result is stored as
// the mixer's current output predictions.
func (m *SGDMixer) Predict(ds *datasource.DataSource) (map[string]Prediction, error) {
	if !m.IsFitted {
		return nil, NotFittedError
	}
	x, rows, width, err := designMatrix(ds, m.InputColumns)
	if err != nil {
		return nil, err
	}
	if width != m.InWidth {
		return nil, errors.Errorf("input data encodes to width %d, want %d", width, m.InWidth)
	}
	predictions := make(map[string]Prediction, len(m.OutputColumns))
	for _, column := range m.OutputColumns {
		outWidth := len(m.Bias[column])
		yhat := m.forward(x, rows, outWidth, m.Weights[column], m.Bias[column])
		prediction, err := decodePrediction(ds, column, yhat, rows, outWidth)
		if err != nil {
			return nil, err
		}
		predictions[column] = prediction
	}
	m.Predictions = predictions
	return predictions, nil
}

// OutputPredictions returns the predictions stored by the last Predict call.
func (m *SGDMixer) OutputPredictions() map[string]Prediction {
	return m.Predictions
}

func zeros(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}
