// Package datasource is the encoding and caching layer over one raw table for
// one definition. A data source owns the encoders for its columns, produces
// encoded tensors on demand, caches them for reuse, and still exposes the
// untouched source values for ground-truth comparison.
package datasource

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/hscells/loom/definition"
	"github.com/hscells/loom/encoding"
	"github.com/hscells/loom/frame"
)

// UnknownColumnError indicates a column name not declared by the definition.
var UnknownColumnError = errors.New("column is not declared by the definition")

// DataSource wraps one raw frame plus its definition.
type DataSource struct {
	data     *frame.Frame
	def      definition.Definition
	encoders map[string]encoding.Encoder
	cache    ColumnCacher
}

// Option configures a data source.
type Option func(*DataSource)

// WithCache substitutes the column cache. The default is an unbounded
// in-memory map.
func WithCache(c ColumnCacher) Option {
	return func(ds *DataSource) {
		ds.cache = c
	}
}

// WithEncoders seeds the data source with already fitted encoders from a
// prior data source, so inference data is encoded with exactly the numeric
// representation learnt from training data.
func WithEncoders(encoders map[string]encoding.Encoder) Option {
	return func(ds *DataSource) {
		ds.encoders = encoders
	}
}

// New creates a data source over a frame for a definition.
func New(data *frame.Frame, def definition.Definition, options ...Option) *DataSource {
	ds := &DataSource{
		data:     data,
		def:      def,
		encoders: make(map[string]encoding.Encoder),
		cache:    NewMapColumnCache(),
	}
	for _, option := range options {
		option(ds)
	}
	return ds
}

// ColumnConfig looks a column up in the definition.
func (ds *DataSource) ColumnConfig(name string) (definition.FeatureSpec, error) {
	spec, ok := ds.def.Feature(name)
	if !ok {
		return definition.FeatureSpec{}, errors.Wrap(UnknownColumnError, name)
	}
	return spec, nil
}

// ColumnOriginalData returns the raw values of a column, straight from the
// source frame. These are the ground truth for accuracy scoring; they must
// never be a decode of the encoded tensor, which would mask encoder loss as
// model error.
func (ds *DataSource) ColumnOriginalData(name string) (frame.Column, error) {
	if _, err := ds.ColumnConfig(name); err != nil {
		return nil, err
	}
	col, ok := ds.data.Column(name)
	if !ok {
		return nil, errors.Errorf("frame has no data for column %s", name)
	}
	return col, nil
}

// EncodedColumn returns the encoded tensor for a column, from cache when
// possible. The column's encoder is fitted on first use and reused untouched
// afterwards, including encoders carried over from another data source.
func (ds *DataSource) EncodedColumn(name string) (*tensor.Dense, error) {
	spec, err := ds.ColumnConfig(name)
	if err != nil {
		return nil, err
	}
	if t, err := ds.cache.Get(name); err == nil {
		return t, nil
	}
	col, ok := ds.data.Column(name)
	if !ok {
		return nil, errors.Errorf("frame has no data for column %s", name)
	}
	enc, ok := ds.encoders[name]
	if !ok {
		enc, err = encoding.New(spec)
		if err != nil {
			return nil, err
		}
		ds.encoders[name] = enc
	}
	var t *tensor.Dense
	if enc.Fitted() {
		t, err = enc.Encode(col)
	} else {
		t, err = enc.FitEncode(col)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encoding column %s", name)
	}
	if err := ds.cache.Set(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Encoder returns the encoder bound to a column, creating it if the column
// has not been encoded yet.
func (ds *DataSource) Encoder(name string) (encoding.Encoder, error) {
	spec, err := ds.ColumnConfig(name)
	if err != nil {
		return nil, err
	}
	if enc, ok := ds.encoders[name]; ok {
		return enc, nil
	}
	enc, err := encoding.New(spec)
	if err != nil {
		return nil, err
	}
	ds.encoders[name] = enc
	return enc, nil
}

// Encoders returns the encoder set owned by this data source.
func (ds *DataSource) Encoders() map[string]encoding.Encoder {
	return ds.encoders
}

// SetEncoders swaps in an externally supplied encoder set. Any cached tensors
// were produced by the previous encoders, so the cache is purged; it must
// never mix two encoder states.
func (ds *DataSource) SetEncoders(encoders map[string]encoding.Encoder) error {
	ds.encoders = encoders
	return ds.cache.Purge()
}

// EncodeAll encodes every column the definition declares and returns the
// complete encoded cache. The frame must carry data for all declared columns,
// so this is only meaningful for training data.
func (ds *DataSource) EncodeAll() (map[string]*tensor.Dense, error) {
	encoded := make(map[string]*tensor.Dense)
	for _, name := range append(ds.def.InputColumns(), ds.def.OutputColumns()...) {
		t, err := ds.EncodedColumn(name)
		if err != nil {
			return nil, err
		}
		encoded[name] = t
	}
	return encoded, nil
}

// Definition returns the definition this data source was built for.
func (ds *DataSource) Definition() definition.Definition {
	return ds.def
}

// Rows returns the number of rows in the underlying frame.
func (ds *DataSource) Rows() int {
	return ds.data.Rows()
}
