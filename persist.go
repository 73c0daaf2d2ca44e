package loom

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/hscells/loom/definition"
	"github.com/hscells/loom/encoding"
	"github.com/hscells/loom/mixer"
)

// stateVersion is bumped whenever predictorState changes shape, so a restored
// blob from an incompatible release fails loudly instead of silently
// misbehaving.
const stateVersion = 1

// predictorState enumerates exactly what a predictor persists: the validated
// definition, the fitted encoder set, the fitted mixer, and the training-time
// encoded cache.
type predictorState struct {
	Version      int
	ID           string
	Definition   definition.Definition
	Encoders     map[string]encoding.Encoder
	Mixer        mixer.Mixer
	EncodedCache map[string]*tensor.Dense
}

func init() {
	gob.Register(&mixer.SGDMixer{})
	gob.Register(&mixer.KNNMixer{})
	// Concrete types carried inside frame.Column values.
	gob.Register(float64(0))
	gob.Register("")
}

// Save serialises the predictor's full internal state to the writer.
func (p *Predictor) Save(w io.Writer) error {
	state := predictorState{
		Version:      stateVersion,
		ID:           p.ID,
		Definition:   p.definition,
		Encoders:     p.encoders,
		Mixer:        p.mixer,
		EncodedCache: p.encodedCache,
	}
	return errors.Wrap(gob.NewEncoder(w).Encode(state), "saving predictor")
}

// SaveFile saves the predictor to a file.
func (p *Predictor) SaveFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0664)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.Save(f)
}

// Load restores a predictor from state written by Save. Validation is
// skipped: the blob was produced by a prior validated instance.
func Load(r io.Reader) (*Predictor, error) {
	var state predictorState
	if err := gob.NewDecoder(r).Decode(&state); err != nil {
		return nil, errors.Wrap(err, "loading predictor")
	}
	if state.Version != stateVersion {
		return nil, errors.Errorf("predictor state version %d is not supported (want %d)", state.Version, stateVersion)
	}
	return &Predictor{
		ID:           state.ID,
		definition:   state.Definition,
		encoders:     state.Encoders,
		mixer:        state.Mixer,
		encodedCache: state.EncodedCache,
	}, nil
}

// LoadFile restores a predictor from a file written by SaveFile.
func LoadFile(path string) (*Predictor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
