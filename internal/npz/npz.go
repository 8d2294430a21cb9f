package npz

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Writer streams arrays into an NPZ container. Entries are written in call
// order; Close must be called to flush the ZIP directory.
type Writer struct {
	zw *zip.Writer
}

// NewWriter wraps w in an NPZ container writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zip.NewWriter(w)}
}

func (w *Writer) create(name string) (io.Writer, error) {
	return w.zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
}

// PutFloats writes a '<f8' array. len(data) must equal the shape product.
func (w *Writer) PutFloats(name string, shape []int, data []float64) error {
	if err := checkCount(name, shape, len(data)); err != nil {
		return err
	}
	entry, err := w.create(name + ".npy")
	if err != nil {
		return fmt.Errorf("failed to create entry %q: %w", name, err)
	}
	return writeFloats(entry, shape, data)
}

// PutInts writes a '<i8' array. len(data) must equal the shape product.
func (w *Writer) PutInts(name string, shape []int, data []int64) error {
	if err := checkCount(name, shape, len(data)); err != nil {
		return err
	}
	entry, err := w.create(name + ".npy")
	if err != nil {
		return fmt.Errorf("failed to create entry %q: %w", name, err)
	}
	return writeInts(entry, shape, data)
}

// PutStrings writes a 1-D '<U#' array sized to the longest value.
func (w *Writer) PutStrings(name string, values []string) error {
	entry, err := w.create(name + ".npy")
	if err != nil {
		return fmt.Errorf("failed to create entry %q: %w", name, err)
	}
	return writeStrings(entry, values)
}

// PutJSON writes a raw .json sidecar entry.
func (w *Writer) PutJSON(name string, data []byte) error {
	entry, err := w.create(name + ".json")
	if err != nil {
		return fmt.Errorf("failed to create entry %q: %w", name, err)
	}
	_, err = entry.Write(data)
	return err
}

// Close flushes the container directory.
func (w *Writer) Close() error {
	return w.zw.Close()
}

func checkCount(name string, shape []int, n int) error {
	want := 1
	for _, d := range shape {
		want *= d
	}
	if n != want {
		return fmt.Errorf("array %q: %d elements do not fill shape %v", name, n, shape)
	}
	return nil
}

// Archive is a decoded NPZ container: arrays by name plus any raw sidecar
// entries, both in container order.
type Archive struct {
	names    []string
	arrays   map[string]*Array
	rawNames []string
	raw      map[string][]byte
}

// ReadFile opens and fully decodes an NPZ archive.
func ReadFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}
	return Read(f, info.Size())
}

// Read decodes an NPZ archive from a random-access source.
func Read(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip container: %w", err)
	}

	a := &Archive{
		arrays: make(map[string]*Array),
		raw:    make(map[string][]byte),
	}
	for _, entry := range zr.File {
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %q: %w", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %q: %w", entry.Name, err)
		}

		if strings.HasSuffix(entry.Name, ".npy") {
			arr, err := readArray(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", entry.Name, err)
			}
			name := strings.TrimSuffix(entry.Name, ".npy")
			a.names = append(a.names, name)
			a.arrays[name] = arr
		} else {
			a.rawNames = append(a.rawNames, entry.Name)
			a.raw[entry.Name] = data
		}
	}
	return a, nil
}

// Names returns the array names in container order.
func (a *Archive) Names() []string {
	return a.names
}

// Array returns the decoded array for name.
func (a *Archive) Array(name string) (*Array, bool) {
	arr, ok := a.arrays[name]
	return arr, ok
}

// RawNames returns the non-array entry names in container order.
func (a *Archive) RawNames() []string {
	return a.rawNames
}

// Raw returns the bytes of a non-array entry (full entry name, including
// extension).
func (a *Archive) Raw(name string) ([]byte, bool) {
	data, ok := a.raw[name]
	return data, ok
}
