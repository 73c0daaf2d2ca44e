package mixer

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/knn"

	"github.com/hscells/loom/datasource"
)

// KNNMixer predicts categorical output columns with a golearn k-nearest
// neighbours classifier over the encoded input columns. Fitting is a single
// iteration: the classifier just memorises the training matrix. The training
// matrix is kept on the struct so a restored mixer can rebuild its
// classifiers; classifiers themselves are not serialisable.
type KNNMixer struct {
	InputColumns  []string
	OutputColumns []string
	Neighbours    int

	X        []float64
	Rows     int
	InWidth  int
	Labels   map[string][]int
	Widths   map[string]int
	IsFitted bool

	Predictions map[string]Prediction

	classifiers map[string]*knn.KNNClassifier
}

// NewKNNMixer creates a nearest-neighbour mixer over the given input and
// output column names.
func NewKNNMixer(inputColumns, outputColumns []string, neighbours int) *KNNMixer {
	return &KNNMixer{
		InputColumns:  inputColumns,
		OutputColumns: outputColumns,
		Neighbours:    neighbours,
	}
}

// IterFit memorises the encoded training data and fits one classifier per
// output column. The sequence contains a single iteration.
func (m *KNNMixer) IterFit(ds *datasource.DataSource, c chan FitResult) {
	defer close(c)

	m.IsFitted = false
	x, rows, inWidth, err := designMatrix(ds, m.InputColumns)
	if err != nil {
		c <- FitResult{Error: err, Type: Error}
		return
	}
	if rows == 0 {
		c <- FitResult{Error: errors.New("no rows to fit"), Type: Error}
		return
	}
	m.X = x
	m.Rows = rows
	m.InWidth = inWidth
	m.Labels = make(map[string][]int, len(m.OutputColumns))
	m.Widths = make(map[string]int, len(m.OutputColumns))

	for _, column := range m.OutputColumns {
		y, _, width, err := designMatrix(ds, []string{column})
		if err != nil {
			c <- FitResult{Error: err, Type: Error}
			return
		}
		m.Labels[column] = argmaxRows(y, rows, width)
		m.Widths[column] = width
	}

	if err := m.fitClassifiers(); err != nil {
		c <- FitResult{Error: err, Type: Error}
		return
	}
	m.IsFitted = true
	c <- FitResult{Iteration: 0, Type: Iteration}
	c <- FitResult{Iteration: 1, Type: Done}
}

func (m *KNNMixer) fitClassifiers() error {
	m.classifiers = make(map[string]*knn.KNNClassifier, len(m.OutputColumns))
	rows := rowsOf(m.X, m.InWidth)
	for _, column := range m.OutputColumns {
		grid, err := makeDataSet(rows, m.Labels[column])
		if err != nil {
			return errors.Wrapf(err, "fitting knn for column %s", column)
		}
		cls := knn.NewKnnClassifier("euclidean", "linear", m.Neighbours)
		if err := cls.Fit(grid); err != nil {
			return errors.Wrapf(err, "fitting knn for column %s", column)
		}
		m.classifiers[column] = cls
	}
	return nil
}

// Predict classifies every row of the data source's encoded input columns and
// expands each predicted class back into the output column's encoded form.
func (m *KNNMixer) Predict(ds *datasource.DataSource) (map[string]Prediction, error) {
	if !m.IsFitted {
		return nil, NotFittedError
	}
	// A gob-restored mixer carries its training matrix but no classifiers.
	if m.classifiers == nil {
		if err := m.fitClassifiers(); err != nil {
			return nil, err
		}
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
		outWidth := m.Widths[column]
		yhat := make([]float64, rows*outWidth)
		for r := 0; r < rows; r++ {
			class, err := m.classify(m.classifiers[column], x[r*width:(r+1)*width])
			if err != nil {
				return nil, errors.Wrapf(err, "classifying row %d of column %s", r, column)
			}
			if class >= 0 && class < outWidth {
				yhat[r*outWidth+class] = 1
			}
		}
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
func (m *KNNMixer) OutputPredictions() map[string]Prediction {
	return m.Predictions
}

func (m *KNNMixer) classify(cls *knn.KNNClassifier, row []float64) (int, error) {
	grid := makeClassifyDataSet(m.format(), row)
	res, err := cls.Predict(grid)
	if err != nil {
		return 0, err
	}
	return singleResult(res)
}

func (m *KNNMixer) format() base.FixedDataGrid {
	grid, err := makeDataSet(rowsOf(m.X, m.InWidth), m.Labels[m.OutputColumns[0]])
	if err != nil {
		panic(err)
	}
	return grid
}

func argmaxRows(data []float64, rows, width int) []int {
	out := make([]int, rows)
	for r := 0; r < rows; r++ {
		best := 0
		for j := 1; j < width; j++ {
			if data[r*width+j] > data[r*width+best] {
				best = j
			}
		}
		out[r] = best
	}
	return out
}

func rowsOf(data []float64, width int) [][]float64 {
	rows := make([][]float64, len(data)/width)
	for r := range rows {
		rows[r] = data[r*width : (r+1)*width]
	}
	return rows
}

func makeDataSet(data [][]float64, labels []int) (base.FixedDataGrid, error) {
	if len(data) == 0 {
		return nil, errors.New("no data")
	}
	if len(data) != len(labels) {
		return nil, errors.Errorf("data and labels have different lengths %d %d", len(data), len(labels))
	}
	rawData := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(data[0])+1)
	for x := range data[0] {
		a := base.NewFloatAttribute(fmt.Sprintf("v%d", x))
		specs[x] = rawData.AddAttribute(a)
	}
	ca := base.NewFloatAttribute("res")
	specs[len(data[0])] = rawData.AddAttribute(ca)
	if err := rawData.AddClassAttribute(ca); err != nil {
		return nil, err
	}
	if err := rawData.Extend(len(data)); err != nil {
		return nil, err
	}
	for x, row := range data {
		for y, v := range row {
			rawData.Set(specs[y], x, base.PackFloatToBytes(v))
		}
		rawData.Set(specs[len(row)], x, base.PackFloatToBytes(float64(labels[x])))
	}
	return rawData, nil
}

func makeClassifyDataSet(format base.FixedDataGrid, row []float64) *base.DenseInstances {
	di := base.NewStructuralCopy(format)
	if err := di.Extend(1); err != nil {
		panic(err)
	}
	attrs := di.AllAttributes()
	for x, a := range attrs {
		if x >= len(row) {
			break
		}
		spec, err := di.GetAttribute(a)
		if err != nil {
			panic(err) // internal err
		}
		di.Set(spec, 0, base.PackFloatToBytes(row[x]))
	}
	return di
}

func singleResult(res base.FixedDataGrid) (int, error) {
	attrs := res.AllAttributes()
	if len(attrs) != 1 {
		return 0, errors.Errorf("expected a single result attribute, got %d", len(attrs))
	}
	spec, err := res.GetAttribute(attrs[0])
	if err != nil {
		return 0, err
	}
	raw := res.Get(spec, 0)
	if len(raw) != 8 {
		return 0, errors.Errorf("result attribute has %d bytes, want 8", len(raw))
	}
	return int(math.Round(base.UnpackBytesToFloat(raw))), nil
}
