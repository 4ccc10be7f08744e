package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/google/uuid"
)

var emptyDocument = []byte("{}")

// Store reads and replaces named JSON documents kept as one file per name.
// It does not serialize writers: concurrent writes to the same name race and
// the last rename wins.
type Store struct {
	dir string
	hub *hub
}

// NewStore returns a store rooted at <settingsDir>/jupyterlab-new-launcher.
// Nothing is created on disk until the first write.
func NewStore(settingsDir string) *Store {
	return &Store{
		dir: filepath.Join(settingsDir, Dir),
		hub: newHub(),
	}
}

// Dir returns the directory holding the document files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing name.
func (s *Store) Path(name Name) string {
	return filepath.Join(s.dir, string(name)+".json")
}

// Read returns the canonical JSON of the stored document, or {} if it has
// never been written. A file that does not parse is reported, not repaired.
func (s *Store) Read(name Name) ([]byte, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocument, name)
	}

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return append([]byte(nil), emptyDocument...), nil
		}
		return nil, err
	}

	out, err := canonicalize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, s.Path(name), err)
	}
	return out, nil
}

// Write validates body as a single JSON value and replaces the stored
// document with its canonical form, which is returned. Invalid bodies leave
// the previous document untouched.
func (s *Store) Write(name Name, body []byte) ([]byte, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocument, name)
	}

	data, err := canonicalize(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if err := s.writeAtomic(s.Path(name), data); err != nil {
		return nil, err
	}
	s.hub.publish(name, data)
	return data, nil
}

// Subscribe delivers the canonical bytes of every later successful write of
// name. Slow receivers miss updates rather than block writers. The returned
// func unsubscribes and closes the channel.
func (s *Store) Subscribe(name Name) (<-chan []byte, func()) {
	return s.hub.subscribe(name)
}

// writeAtomic writes to a uniquely named temp file in the target directory
// then renames it over path, so readers see either the old or the new file.
func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// canonicalize checks that data is exactly one JSON value in valid UTF-8
// and strips insignificant whitespace. String escapes, number literals and
// key order are kept byte for byte.
func canonicalize(data []byte) ([]byte, error) {
	if !utf8.Valid(data) {
		return nil, errors.New("input is not valid UTF-8")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var v json.RawMessage
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty input")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
