package datasource

import (
	"bytes"
	"encoding/gob"

	lru "github.com/hashicorp/golang-lru"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// CacheMissError indicates a column has no cached tensor.
var CacheMissError = errors.New("cache miss error")

// BlockTransform determines how diskv should partition folders.
func BlockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// ColumnCacher models a way to cache (either persistent or not) the encoded
// tensor of a column. Purge drops every entry; it is called whenever the data
// source's encoders are swapped, since a cache may never mix tensors produced
// by two different encoder states.
type ColumnCacher interface {
	Get(column string) (*tensor.Dense, error)
	Set(column string, t *tensor.Dense) error
	Purge() error
}

type mapColumnCache struct {
	m map[string]*tensor.Dense
}

func (m *mapColumnCache) Get(column string) (*tensor.Dense, error) {
	if t, ok := m.m[column]; ok {
		return t, nil
	}
	return nil, CacheMissError
}

func (m *mapColumnCache) Set(column string, t *tensor.Dense) error {
	m.m[column] = t
	return nil
}

func (m *mapColumnCache) Purge() error {
	m.m = make(map[string]*tensor.Dense)
	return nil
}

// NewMapColumnCache creates a column cache out of a regular go map.
func NewMapColumnCache() ColumnCacher {
	return &mapColumnCache{m: make(map[string]*tensor.Dense)}
}

type lruColumnCache struct {
	c *lru.Cache
}

func (l *lruColumnCache) Get(column string) (*tensor.Dense, error) {
	if t, ok := l.c.Get(column); ok {
		return t.(*tensor.Dense), nil
	}
	return nil, CacheMissError
}

func (l *lruColumnCache) Set(column string, t *tensor.Dense) error {
	l.c.Add(column, t)
	return nil
}

func (l *lruColumnCache) Purge() error {
	l.c.Purge()
	return nil
}

// NewLRUColumnCache creates a bounded in-memory column cache. An evicted
// column is simply re-encoded on its next access.
func NewLRUColumnCache(size int) (ColumnCacher, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &lruColumnCache{c: c}, nil
}

type diskvColumnCache struct {
	*diskv.Diskv
}

func (d diskvColumnCache) Get(column string) (*tensor.Dense, error) {
	b, err := d.Read(column)
	if err != nil {
		return nil, CacheMissError
	}
	var t tensor.Dense
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (d diskvColumnCache) Set(column string, t *tensor.Dense) error {
	var buff bytes.Buffer
	if err := gob.NewEncoder(&buff).Encode(t); err != nil {
		return err
	}
	return d.Write(column, buff.Bytes())
}

func (d diskvColumnCache) Purge() error {
	return d.EraseAll()
}

// NewDiskvColumnCache creates a new on-disk column cache with the specified
// diskv parameters.
func NewDiskvColumnCache(dv *diskv.Diskv) ColumnCacher {
	return diskvColumnCache{dv}
}
