package loom_test

import (
	"bytes"
	"math/rand"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/hscells/loom"
	"github.com/hscells/loom/definition"
	"github.com/hscells/loom/frame"
	"github.com/hscells/loom/mixer"
)

func numericDefinition() definition.Definition {
	return definition.NewDefinition("test",
		[]definition.FeatureSpec{
			{Name: "x", Type: definition.Numeric},
			{Name: "y", Type: definition.Numeric},
		},
		[]definition.FeatureSpec{
			{Name: "z", Type: definition.Numeric},
		})
}

func numericFrame(t *testing.T) *frame.Frame {
	r := rand.New(rand.NewSource(42))
	x := make([]float64, 10)
	y := make([]float64, 10)
	z := make([]float64, 10)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(i + r.Intn(20))
		z[i] = x[i] + y[i] + float64(i)
	}
	f := frame.New()
	for _, col := range []struct {
		name   string
		values []float64
	}{{"x", x}, {"y", y}, {"z", z}} {
		if err := f.AddColumn(col.name, frame.FloatColumn(col.values)); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func quiet() loom.Option {
	return loom.WithProgress(func(mixer.FitResult) {})
}

func TestLearnThenPredict(t *testing.T) {
	p, err := loom.NewPredictor(numericDefinition(), quiet())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Learn(numericFrame(t)); err != nil {
		t.Fatal(err)
	}

	when := frame.New()
	if err := when.AddColumn("x", frame.FloatColumn([]float64{6})); err != nil {
		t.Fatal(err)
	}
	if err := when.AddColumn("y", frame.FloatColumn([]float64{12})); err != nil {
		t.Fatal(err)
	}
	predictions, err := p.Predict(when)
	if err != nil {
		t.Fatal(err)
	}
	if len(predictions) != 1 {
		t.Fatalf("got predictions for %d columns, want exactly the output columns", len(predictions))
	}
	prediction, ok := predictions["z"]
	if !ok {
		t.Fatal("no prediction for column z")
	}
	if prediction.Encoded == nil || len(prediction.Actual) != 1 {
		t.Fatal("prediction is missing its encoded or actual form")
	}
	t.Log(prediction.Actual[0])
}

func TestInvalidDefinition(t *testing.T) {
	bad := definition.NewDefinition("", nil, nil)
	_, err := loom.NewPredictor(bad)
	if errors.Cause(err) != loom.InvalidDefinitionError {
		t.Fatalf("got %v, want InvalidDefinitionError", err)
	}
}

func TestAccuracyBeforeLearn(t *testing.T) {
	p, err := loom.NewPredictor(numericDefinition(), quiet())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Accuracy(numericFrame(t)); errors.Cause(err) != mixer.NotFittedError {
		t.Fatalf("got %v, want NotFittedError", err)
	}
	if _, err := p.Predict(numericFrame(t)); errors.Cause(err) != mixer.NotFittedError {
		t.Fatalf("got %v, want NotFittedError", err)
	}
	if _, err := p.AccuracyOfColumns([]string{"z"}); errors.Cause(err) != mixer.NotFittedError {
		t.Fatalf("got %v, want NotFittedError", err)
	}
}

func TestNumericAccuracy(t *testing.T) {
	p, err := loom.NewPredictor(numericDefinition(), quiet())
	if err != nil {
		t.Fatal(err)
	}
	data := numericFrame(t)
	if err := p.Learn(data); err != nil {
		t.Fatal(err)
	}
	accuracies, err := p.Accuracy(data)
	if err != nil {
		t.Fatal(err)
	}
	score, ok := accuracies.Accuracies["z"]
	if !ok {
		t.Fatal("no accuracy for column z")
	}
	// z is linear in the inputs, so the fitted model should explain it well.
	if score < 0.9 {
		t.Fatalf("accuracy %v is too low for a linear target", score)
	}

	// Idempotence: scoring again must not change the result.
	again, err := p.Accuracy(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(accuracies, again) {
		t.Fatalf("accuracy is not idempotent: %v vs %v", accuracies, again)
	}
}

func categoricalPredictor(t *testing.T) (*loom.Predictor, *frame.Frame) {
	def := definition.NewDefinition("categorical",
		[]definition.FeatureSpec{{Name: "f", Type: definition.Numeric}},
		[]definition.FeatureSpec{{Name: "c", Type: definition.Categorical}})
	data := frame.New()
	if err := data.AddColumn("f", frame.FloatColumn([]float64{0, 1, 10, 11})); err != nil {
		t.Fatal(err)
	}
	if err := data.AddColumn("c", frame.StringColumn([]string{"low", "low", "high", "high"})); err != nil {
		t.Fatal(err)
	}
	p, err := loom.NewPredictor(def, quiet(),
		loom.WithMixerFactory(func(in, out []string) mixer.Mixer {
			return mixer.NewKNNMixer(in, out, 1)
		}))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Learn(data); err != nil {
		t.Fatal(err)
	}
	return p, data
}

func TestCategoricalAccuracyExactMatch(t *testing.T) {
	p, data := categoricalPredictor(t)
	accuracies, err := p.Accuracy(data)
	if err != nil {
		t.Fatal(err)
	}
	if accuracies.Accuracies["c"] != 1.0 {
		t.Fatalf("got %v, want 1.0 on perfectly matched predictions", accuracies.Accuracies["c"])
	}
}

func TestCategoricalAccuracyAllMismatched(t *testing.T) {
	p, _ := categoricalPredictor(t)
	flipped := frame.New()
	if err := flipped.AddColumn("f", frame.FloatColumn([]float64{0, 1, 10, 11})); err != nil {
		t.Fatal(err)
	}
	if err := flipped.AddColumn("c", frame.StringColumn([]string{"high", "high", "low", "low"})); err != nil {
		t.Fatal(err)
	}
	accuracies, err := p.Accuracy(flipped)
	if err != nil {
		t.Fatal(err)
	}
	if accuracies.Accuracies["c"] != 0.0 {
		t.Fatalf("got %v, want 0.0 on fully mismatched predictions", accuracies.Accuracies["c"])
	}
}

func TestAccuracyOfColumns(t *testing.T) {
	p, err := loom.NewPredictor(numericDefinition(), quiet())
	if err != nil {
		t.Fatal(err)
	}
	data := numericFrame(t)
	if err := p.Learn(data); err != nil {
		t.Fatal(err)
	}
	// AccuracyOfColumns compares stored predictions with the training-time
	// cache, so predictions must first be produced from the training data.
	if _, err := p.Predict(data); err != nil {
		t.Fatal(err)
	}
	accuracies, err := p.AccuracyOfColumns([]string{"z"})
	if err != nil {
		t.Fatal(err)
	}
	score, ok := accuracies.Accuracies["z"]
	if !ok {
		t.Fatal("no score for column z")
	}
	if score < 0.9 {
		t.Fatalf("explained variance %v is too low for a linear target", score)
	}

	if _, err := p.AccuracyOfColumns([]string{"nope"}); err == nil {
		t.Fatal("expected an error for an undeclared column")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p, err := loom.NewPredictor(numericDefinition(), quiet())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Learn(numericFrame(t)); err != nil {
		t.Fatal(err)
	}

	var buff bytes.Buffer
	if err := p.Save(&buff); err != nil {
		t.Fatal(err)
	}
	restored, err := loom.Load(&buff)
	if err != nil {
		t.Fatal(err)
	}
	if restored.ID != p.ID {
		t.Fatal("restored predictor has a different identity")
	}

	when := frame.New()
	if err := when.AddColumn("x", frame.FloatColumn([]float64{6, 2, 3})); err != nil {
		t.Fatal(err)
	}
	if err := when.AddColumn("y", frame.FloatColumn([]float64{12, 3, 4})); err != nil {
		t.Fatal(err)
	}

	a, err := p.Predict(when)
	if err != nil {
		t.Fatal(err)
	}
	b, err := restored.Predict(when)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a["z"].Actual, b["z"].Actual) {
		t.Fatalf("restored predictor predicts %v, original %v", b["z"].Actual, a["z"].Actual)
	}
	if !reflect.DeepEqual(a["z"].Encoded.Data(), b["z"].Encoded.Data()) {
		t.Fatal("restored predictor produces different encoded predictions")
	}

	// AccuracyOfColumns needs stored predictions matching the training rows.
	train := numericFrame(t)
	if _, err := p.Predict(train); err != nil {
		t.Fatal(err)
	}
	if _, err := restored.Predict(train); err != nil {
		t.Fatal(err)
	}
	ao, err := p.AccuracyOfColumns([]string{"z"})
	if err != nil {
		t.Fatal(err)
	}
	bo, err := restored.AccuracyOfColumns([]string{"z"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ao, bo) {
		t.Fatalf("restored predictor scores %v, original %v", bo, ao)
	}
}

func TestLearnWithHoldoutData(t *testing.T) {
	p, err := loom.NewPredictor(numericDefinition(), quiet())
	if err != nil {
		t.Fatal(err)
	}
	test := frame.New()
	for _, col := range []struct {
		name   string
		values []float64
	}{{"x", []float64{1}}, {"y", []float64{2}}, {"z", []float64{3}}} {
		if err := test.AddColumn(col.name, frame.FloatColumn(col.values)); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Learn(numericFrame(t), loom.WithTestData(test)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Predict(test); err != nil {
		t.Fatal(err)
	}
}
