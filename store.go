package loom

import (
	"bytes"

	"github.com/peterbourgon/diskv"
)

// Store models a way to keep predictors by key, for callers that manage many
// trained predictors rather than single state files.
type Store interface {
	Write(key string, p *Predictor) error
	Read(key string) (*Predictor, error)
}

type diskvStore struct {
	*diskv.Diskv
}

func (s diskvStore) Write(key string, p *Predictor) error {
	var buff bytes.Buffer
	if err := p.Save(&buff); err != nil {
		return err
	}
	return s.Diskv.Write(key, buff.Bytes())
}

func (s diskvStore) Read(key string) (*Predictor, error) {
	b, err := s.Diskv.Read(key)
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(b))
}

// NewDiskvStore creates an on-disk predictor store with the specified diskv
// parameters. The predictor's ID is a natural key.
func NewDiskvStore(dv *diskv.Diskv) Store {
	return diskvStore{dv}
}
