package mapping

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hellominers/statsupdater/internal/errors"
)

// File is the on-disk layout of the mapping tables.
//
//	blocks:            # index is the legacy block id
//	  - minecraft:air
//	  - minecraft:stone
//	items:
//	  256: minecraft:iron_shovel
//	renames:
//	  minecraft:speckled_melon: minecraft:glistering_melon_slice
//	registry:          # optional list of valid item names
//	  - minecraft:iron_shovel
type File struct {
	Blocks   []string          `yaml:"blocks"`
	Items    map[int]string    `yaml:"items"`
	Renames  map[string]string `yaml:"renames"`
	Registry []string          `yaml:"registry"`
}

// LoadFile reads and builds the tables stored at path.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from operator config
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryMapping).
			Context("operation", "read-mapping-file").
			Context("path", path).
			Build()
	}

	tables, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryMapping).
			Context("path", path).
			Build()
	}
	return tables, nil
}

// Load decodes a mapping document from r and builds the tables.
func Load(r io.Reader) (*Tables, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			err = fmt.Errorf("mapping document is empty")
		}
		return nil, errors.New(err).
			Category(errors.CategoryMapping).
			Context("operation", "decode-mapping").
			Build()
	}

	if err := f.validate(); err != nil {
		return nil, err
	}

	return &Tables{
		Blocks: NewBlockTable(f.Blocks),
		Items:  NewItemTable(f.Items, f.Renames, f.Registry),
	}, nil
}

func (f *File) validate() error {
	if len(f.Blocks) == 0 && len(f.Items) == 0 {
		return errors.Newf("mapping document defines neither blocks nor items").
			Category(errors.CategoryMapping).
			Build()
	}
	for id, name := range f.Items {
		if id < 0 {
			return errors.Newf("item id %d is negative", id).
				Category(errors.CategoryMapping).
				Context("item_id", id).
				Build()
		}
		if Qualify(name) == "" {
			return errors.Newf("item id %d has an empty name", id).
				Category(errors.CategoryMapping).
				Context("item_id", id).
				Build()
		}
	}
	return nil
}
