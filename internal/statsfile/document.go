package statsfile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/antonholmquist/jason"

	"github.com/hellominers/statsupdater/internal/errors"
)

const (
	// VersionKey marks a document as converted; its presence alone means current.
	VersionKey = "DataVersion"
	// StatsKey holds the category -> identifier -> value tree of a current document.
	StatsKey = "stats"
)

// Document is a parsed stats document. Numbers are kept as json.Number so
// values survive a read/write cycle without float rounding.
type Document map[string]any

// IsCurrent reports whether the document already carries the version marker
// or a current-layout stats section.
func (d Document) IsCurrent() bool {
	if _, ok := d[VersionKey]; ok {
		return true
	}
	_, ok := d[StatsKey]
	return ok
}

// Stats returns the stats section of a current-layout document.
func (d Document) Stats() (map[string]any, bool) {
	stats, ok := d[StatsKey].(map[string]any)
	return stats, ok
}

// ParseDocument parses data as a JSON object.
func ParseDocument(data []byte) (Document, error) {
	// jason tolerates trailing bytes after the first value
	if !json.Valid(data) {
		return nil, errors.Newf("invalid JSON").
			Category(errors.CategoryFileParsing).
			Context("bytes", len(data)).
			Build()
	}

	obj, err := jason.NewObjectFromBytes(data)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("bytes", len(data)).
			Build()
	}

	return Document(objectToMap(obj)), nil
}

// objectToMap copies a jason object into plain Go values. Numbers stay
// json.Number.
func objectToMap(obj *jason.Object) map[string]any {
	fields := obj.Map()
	m := make(map[string]any, len(fields))
	for k, v := range fields {
		m[k] = valueToAny(v)
	}
	return m
}

func valueToAny(v *jason.Value) any {
	if obj, err := v.Object(); err == nil {
		return objectToMap(obj)
	}
	if arr, err := v.Array(); err == nil {
		out := make([]any, len(arr))
		for i, elem := range arr {
			out[i] = valueToAny(elem)
		}
		return out
	}
	if n, err := v.Number(); err == nil {
		return n
	}
	if str, err := v.String(); err == nil {
		return str
	}
	if b, err := v.Boolean(); err == nil {
		return b
	}
	return nil
}

// ReadDocument reads and parses the document behind h. The raw bytes are
// returned alongside so callers can back them up before overwriting.
func ReadDocument(h Handle) (Document, []byte, error) {
	data, err := os.ReadFile(h.Path)
	if err != nil {
		return nil, nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "read-stats-file").
			FileContext(h.Path, 0).
			Build()
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, data, errors.New(err).
			Category(errors.CategoryFileParsing).
			FileContext(h.Path, int64(len(data))).
			Build()
	}
	return doc, data, nil
}

// WriteDocument serializes doc as compact JSON and replaces the file behind h.
// The bytes go to a temporary file in the same directory which is then renamed
// over the original, keeping the original permissions.
func WriteDocument(h Handle, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "encode-stats-file").
			FileContext(h.Path, 0).
			Build()
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(h.Path); statErr == nil {
		mode = info.Mode().Perm()
	}

	if err := writeFileAtomic(h.Path, data, mode); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write-stats-file").
			FileContext(h.Path, int64(len(data))).
			Build()
	}
	return nil
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
