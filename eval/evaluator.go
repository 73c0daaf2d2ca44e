// Package eval scores predictions against ground truth. Categorical columns
// are scored by exact match over native values; numeric columns by regression
// metrics over decoded or encoded values.
package eval

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Evaluator is an interface for scoring a predicted numeric sequence against
// its ground truth.
type Evaluator interface {
	Score(yTrue, yPred []float64) float64
	Name() string
}

type mse struct{}
type rmse struct{}
type r2 struct{}
type explainedVariance struct{}

var (
	// MSE is the mean squared error.
	MSE = mse{}
	// RMSE is the root mean squared error.
	RMSE = rmse{}
	// R2 is the coefficient of determination.
	R2 = r2{}
	// ExplainedVariance is the explained variance regression score.
	ExplainedVariance = explainedVariance{}
)

func (mse) Name() string { return "MSE" }

func (mse) Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / float64(len(yTrue))
}

func (rmse) Name() string { return "RMSE" }

func (rmse) Score(yTrue, yPred []float64) float64 {
	return math.Sqrt(MSE.Score(yTrue, yPred))
}

func (r2) Name() string { return "R2" }

// Score computes 1 - SSres/SStot. A constant truth column scores zero.
func (r2) Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	mean := stat.Mean(yTrue, nil)
	ssTot := 0.0
	ssRes := 0.0
	for i := range yTrue {
		d := yTrue[i] - mean
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func (explainedVariance) Name() string { return "ExplainedVariance" }

// Score computes 1 - Var(yTrue - yPred) / Var(yTrue). A constant truth
// column scores zero.
func (explainedVariance) Score(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	residuals := make([]float64, len(yTrue))
	for i := range yTrue {
		residuals[i] = yTrue[i] - yPred[i]
	}
	varTrue := stat.Variance(yTrue, nil)
	if varTrue == 0 {
		return 0
	}
	return 1 - stat.Variance(residuals, nil)/varTrue
}

// ExplainedVarianceUniform scores a multi-dimensional prediction by averaging
// the explained variance of each dimension uniformly. Data is row-major with
// the given width.
func ExplainedVarianceUniform(yTrue, yPred []float64, width int) float64 {
	if width <= 0 || len(yTrue) == 0 {
		return 0
	}
	rows := len(yTrue) / width
	total := 0.0
	for j := 0; j < width; j++ {
		t := make([]float64, rows)
		p := make([]float64, rows)
		for i := 0; i < rows; i++ {
			t[i] = yTrue[i*width+j]
			p[i] = yPred[i*width+j]
		}
		total += ExplainedVariance.Score(t, p)
	}
	return total / float64(width)
}

// ExactMatch is the proportion of predictions that equal the ground truth
// exactly, for values in their native domain.
func ExactMatch(yTrue, yPred []string) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if i < len(yPred) && yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}
