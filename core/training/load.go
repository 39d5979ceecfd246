package training

import (
	"bytes"
	"io"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Batches []Batch        `yaml:"batches"`
	Regions map[string]int `yaml:"regions"`
}

// Parse decodes a catalog document and builds the Scheduler it describes.
func Parse(data []byte) (*Scheduler, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, configErrorf(ErrEmptyCatalog, "catalog document is empty")
	}

	var doc catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding catalog")
	}

	catalog, err := NewCatalog(doc.Batches)
	if err != nil {
		return nil, err
	}
	regions, err := NewRegionMap(doc.Regions, catalog.BatchCount())
	if err != nil {
		return nil, err
	}
	return NewScheduler(catalog, regions)
}

func Load(r io.Reader) (*Scheduler, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading catalog")
	}
	return Parse(data)
}

func LoadFile(path string) (*Scheduler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading catalog %s", path)
	}
	sched, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return sched, nil
}

func LoadFS(fsys fs.FS, path string) (*Scheduler, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading catalog %s", path)
	}
	sched, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return sched, nil
}
