package configfile

import (
	"compress/bzip2"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	bzw "github.com/dsnet/compress/bzip2"
)

// IOError tags filesystem and decompression failures with the path they
// occurred on.
type IOError struct {
	Path string
	Err  error
}

func (e IOError) Error() string { return fmt.Sprintf("io: %s: %v", e.Path, e.Err) }
func (e IOError) Unwrap() error { return e.Err }

// openReader opens path, layering a bzip2 decompressor for .xml.bz2
// files. Unrecognised extensions are an error.
func openReader(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, IOError{Path: path, Err: err}
	}
	switch {
	case strings.HasSuffix(path, ".xml.bz2"):
		return bzip2.NewReader(f), f.Close, nil
	case strings.HasSuffix(path, ".xml"):
		return f, f.Close, nil
	}
	f.Close()
	return nil, nil, fmt.Errorf("unrecognised extension for xml file %q", path)
}

// Load parses a DynamOconfig document, decompressing transparently.
func Load(path string) (*Document, error) {
	r, closeFn, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, IOError{Path: path, Err: err}
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("config version %q is obsolete, current version is %q", doc.Version, Version)
	}
	return &doc, nil
}

// Save writes the document, compressing when the path ends in .bz2. The
// stream is flushed and closed on every exit path.
func Save(path string, doc *Document) (err error) {
	doc.Version = Version

	f, err := os.Create(path)
	if err != nil {
		return IOError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".bz2") {
		zw, zerr := bzw.NewWriter(f, &bzw.WriterConfig{Level: bzw.BestCompression})
		if zerr != nil {
			return zerr
		}
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		w = zw
	}

	if _, err = io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(doc)
}
