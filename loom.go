// Package loom is a declarative tabular prediction pipeline: declare input and
// output feature columns with their semantic types, learn from a table of raw
// rows, predict on new rows, and score accuracy per column.
package loom

import (
	"log"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/hscells/loom/datasource"
	"github.com/hscells/loom/definition"
	"github.com/hscells/loom/encoding"
	"github.com/hscells/loom/eval"
	"github.com/hscells/loom/frame"
	"github.com/hscells/loom/mixer"
)

// InvalidDefinitionError indicates a definition failed schema validation at
// construction time.
var InvalidDefinitionError = errors.New("definition has errors")

// MixerFactory constructs the mixer a predictor trains, given the declared
// input and output column names.
type MixerFactory func(inputColumns, outputColumns []string) mixer.Mixer

// Predictor orchestrates one predictive task: it owns the training data
// source's fitted encoders and encoded cache, and the fitted mixer. All three
// are unset until Learn succeeds.
type Predictor struct {
	// ID identifies this predictor in a Store.
	ID string

	definition   definition.Definition
	encoders     map[string]encoding.Encoder
	mixer        mixer.Mixer
	encodedCache map[string]*tensor.Dense

	mixerFactory MixerFactory
	progress     func(mixer.FitResult)
}

// Option configures a predictor.
type Option func(*Predictor)

// WithMixerFactory substitutes the mixer implementation the predictor trains.
// The default is an SGD linear mixer.
func WithMixerFactory(f MixerFactory) Option {
	return func(p *Predictor) {
		p.mixerFactory = f
	}
}

// WithProgress substitutes the observer invoked for each fit snapshot during
// Learn. The default logs the iteration index.
func WithProgress(f func(mixer.FitResult)) Option {
	return func(p *Predictor) {
		p.progress = f
	}
}

// NewPredictor validates a definition and creates a predictor for it. The
// returned error wraps InvalidDefinitionError with the violation detail when
// validation fails.
func NewPredictor(def definition.Definition, options ...Option) (*Predictor, error) {
	if err := def.Validate(); err != nil {
		return nil, errors.Wrapf(InvalidDefinitionError, "%s", err)
	}
	p := &Predictor{
		ID:         uuid.New().String(),
		definition: def,
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// Definition returns the validated definition this predictor was built for.
func (p *Predictor) Definition() definition.Definition {
	return p.definition
}

type learnConfig struct {
	test       *frame.Frame
	validation *frame.Frame
}

// LearnOption configures one Learn call.
type LearnOption func(*learnConfig)

// WithTestData supplies held-out test data to the fit. It is encoded with the
// training encoders and offered to mixers that observe holdout data; it is
// never trained on.
func WithTestData(f *frame.Frame) LearnOption {
	return func(c *learnConfig) {
		c.test = f
	}
}

// WithValidationData supplies held-out validation data to the fit, under the
// same contract as WithTestData.
func WithValidationData(f *frame.Frame) LearnOption {
	return func(c *learnConfig) {
		c.validation = f
	}
}

// Learn trains the predictor on a raw table. It builds a training data
// source, fits the encoders and encodes every declared column, drives the
// mixer's iterative fit to completion while observing each snapshot, and
// retains the fitted mixer together with the data source's encoders and
// encoded cache. Learn may be called again to retrain from new data.
func (p *Predictor) Learn(from *frame.Frame, options ...LearnOption) error {
	var c learnConfig
	for _, option := range options {
		option(&c)
	}

	ds := datasource.New(from, p.definition)

	// Fit the encoders and populate the cache before anything touches the
	// holdout data, so holdout sources reuse fitted encoders.
	cache, err := ds.EncodeAll()
	if err != nil {
		return errors.Wrap(err, "encoding training data")
	}

	factory := p.mixerFactory
	if factory == nil {
		factory = func(in, out []string) mixer.Mixer {
			return mixer.NewSGDMixer(in, out)
		}
	}
	m := factory(p.definition.InputColumns(), p.definition.OutputColumns())

	if c.test != nil || c.validation != nil {
		if hm, ok := m.(mixer.HoldoutMixer); ok {
			var test, validation *datasource.DataSource
			if c.test != nil {
				test = datasource.New(c.test, p.definition, datasource.WithEncoders(ds.Encoders()))
			}
			if c.validation != nil {
				validation = datasource.New(c.validation, p.definition, datasource.WithEncoders(ds.Encoders()))
			}
			hm.SetHoldout(test, validation)
		}
	}

	results := make(chan mixer.FitResult)
	go m.IterFit(ds, results)
	for result := range results {
		switch result.Type {
		case mixer.Error:
			return errors.Wrap(result.Error, "fitting mixer")
		case mixer.Iteration:
			if p.progress != nil {
				p.progress(result)
			} else {
				log.Printf("training iteration %d\n", result.Iteration)
			}
		}
	}

	p.mixer = m
	p.encoders = ds.Encoders()
	p.encodedCache = cache
	return nil
}

// Predict returns predictions for the declared output columns given a raw
// table of input columns. The table is encoded with the encoders fitted
// during Learn; they are reused as-is, never re-fitted.
func (p *Predictor) Predict(when *frame.Frame) (map[string]mixer.Prediction, error) {
	if p.mixer == nil {
		return nil, mixer.NotFittedError
	}
	ds := datasource.New(when, p.definition, datasource.WithEncoders(p.encoders))
	return p.mixer.Predict(ds)
}

// Accuracies maps output column names to scores.
type Accuracies struct {
	Accuracies map[string]float64
}

// Accuracy scores the predictor against a raw table that carries ground truth
// for the output columns. Categorical columns score exact-match accuracy over
// native values; numeric columns score R2 over decoded predictions; columns
// of any other type score NaN.
func (p *Predictor) Accuracy(from *frame.Frame) (Accuracies, error) {
	if p.mixer == nil {
		return Accuracies{}, mixer.NotFittedError
	}
	ds := datasource.New(from, p.definition, datasource.WithEncoders(p.encoders))
	predictions, err := p.mixer.Predict(ds)
	if err != nil {
		return Accuracies{}, err
	}

	scores := make(map[string]float64, len(p.definition.OutputFeatures))
	for _, feature := range p.definition.OutputFeatures {
		truth, err := ds.ColumnOriginalData(feature.Name)
		if err != nil {
			return Accuracies{}, err
		}
		prediction, ok := predictions[feature.Name]
		if !ok {
			return Accuracies{}, errors.Errorf("mixer produced no predictions for column %s", feature.Name)
		}
		switch feature.Type {
		case definition.Categorical:
			scores[feature.Name] = eval.ExactMatch(truth.Strings(), prediction.Actual.Strings())
		case definition.Numeric:
			yTrue, err := truth.Floats()
			if err != nil {
				return Accuracies{}, errors.Wrapf(err, "ground truth for column %s", feature.Name)
			}
			yPred, err := prediction.Actual.Floats()
			if err != nil {
				return Accuracies{}, errors.Wrapf(err, "predictions for column %s", feature.Name)
			}
			scores[feature.Name] = eval.R2.Score(yTrue, yPred)
		default:
			scores[feature.Name] = math.NaN()
		}
	}
	return Accuracies{Accuracies: scores}, nil
}

// AccuracyOfColumns computes the explained variance between the cached
// encoded training ground truth and the mixer's last stored encoded
// predictions, averaged uniformly over the encoding's dimensions. Unlike
// Accuracy it operates on training-time encodings and stored predictions, so
// the two methods are not directly comparable.
func (p *Predictor) AccuracyOfColumns(columns []string) (Accuracies, error) {
	if p.mixer == nil {
		return Accuracies{}, mixer.NotFittedError
	}
	stored := p.mixer.OutputPredictions()
	if stored == nil {
		return Accuracies{}, errors.New("mixer holds no stored predictions; call Predict first")
	}

	scores := make(map[string]float64, len(columns))
	for _, column := range columns {
		truth, ok := p.encodedCache[column]
		if !ok {
			return Accuracies{}, errors.Wrap(datasource.UnknownColumnError, column)
		}
		prediction, ok := stored[column]
		if !ok {
			return Accuracies{}, errors.Errorf("no stored predictions for column %s", column)
		}
		yTrue, ok := truth.Data().([]float64)
		if !ok {
			return Accuracies{}, errors.Errorf("cached tensor for column %s is backed by %T", column, truth.Data())
		}
		yPred, ok := prediction.Encoded.Data().([]float64)
		if !ok {
			return Accuracies{}, errors.Errorf("stored predictions for column %s are backed by %T", column, prediction.Encoded.Data())
		}
		if len(yPred) != len(yTrue) {
			return Accuracies{}, errors.Errorf("stored predictions for column %s cover %d values, cached ground truth has %d", column, len(yPred), len(yTrue))
		}
		scores[column] = eval.ExplainedVarianceUniform(yTrue, yPred, truth.Shape()[1])
	}
	return Accuracies{Accuracies: scores}, nil
}
