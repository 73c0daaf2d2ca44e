package definition

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// FromJSON reads a definition from a JSON document.
func FromJSON(r io.Reader) (Definition, error) {
	var d Definition
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Definition{}, errors.Wrap(err, "decoding definition")
	}
	return d, nil
}

// FromTOML reads a definition from a TOML document.
func FromTOML(r io.Reader) (Definition, error) {
	var d Definition
	if _, err := toml.DecodeReader(r, &d); err != nil {
		return Definition{}, errors.Wrap(err, "decoding definition")
	}
	return d, nil
}

// FromFile reads a definition from a file, choosing the decoder from the file
// extension (.json or .toml).
func FromFile(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, err
	}
	defer f.Close()
	switch filepath.Ext(path) {
	case ".toml":
		return FromTOML(f)
	case ".json":
		return FromJSON(f)
	}
	return Definition{}, errors.Errorf("unknown definition format for %s", path)
}
