package npz

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the element type of an Array.
type Kind int

const (
	// Float64 is dtype '<f8'.
	Float64 Kind = iota
	// Int64 is dtype '<i8'.
	Int64
	// Unicode is dtype '<U#', fixed-width UCS-4 strings.
	Unicode
)

// Array is one decoded .npy entry.
type Array struct {
	Kind    Kind
	Shape   []int
	Floats  []float64
	Ints    []int64
	Strings []string
}

// Len returns the total element count (the product of the shape).
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

var npyMagic = []byte("\x93NUMPY")

// npyHeader builds a format 1.0 header for the given dtype descriptor and
// C-order shape. The header dict is padded with spaces so the data section
// starts on a 64-byte boundary, matching what NumPy itself writes.
func npyHeader(descr string, shape []int) []byte {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }",
		descr, shapeTuple(shape))
	total := len(npyMagic) + 2 + 2 + len(dict) + 1
	pad := 0
	if rem := total % 64; rem != 0 {
		pad = 64 - rem
	}

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.WriteByte(1)
	buf.WriteByte(0)
	var hlen [2]byte
	binary.LittleEndian.PutUint16(hlen[:], uint16(len(dict)+pad+1))
	buf.Write(hlen[:])
	buf.WriteString(dict)
	buf.WriteString(strings.Repeat(" ", pad))
	buf.WriteByte('\n')
	return buf.Bytes()
}

// shapeTuple renders a shape the way Python repr() renders a tuple:
// "()", "(5,)", "(2, 3)".
func shapeTuple(shape []int) string {
	switch len(shape) {
	case 0:
		return "()"
	case 1:
		return fmt.Sprintf("(%d,)", shape[0])
	default:
		parts := make([]string, len(shape))
		for i, d := range shape {
			parts[i] = strconv.Itoa(d)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
}

func writeFloats(w io.Writer, shape []int, data []float64) error {
	if _, err := w.Write(npyHeader("<f8", shape)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func writeInts(w io.Writer, shape []int, data []int64) error {
	if _, err := w.Write(npyHeader("<i8", shape)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

// writeStrings emits a 1-D '<U#' array where # is the longest value's rune
// count (at least 1, as NumPy never writes '<U0' for plain string lists).
// Each element is NUL-padded to the fixed width.
func writeStrings(w io.Writer, values []string) error {
	width := 1
	for _, s := range values {
		if n := len([]rune(s)); n > width {
			width = n
		}
	}
	descr := fmt.Sprintf("<U%d", width)
	if _, err := w.Write(npyHeader(descr, []int{len(values)})); err != nil {
		return err
	}
	elem := make([]uint32, width)
	for _, s := range values {
		for i := range elem {
			elem[i] = 0
		}
		for i, r := range []rune(s) {
			elem[i] = uint32(r)
		}
		if err := binary.Write(w, binary.LittleEndian, elem); err != nil {
			return err
		}
	}
	return nil
}

var (
	descrRE   = regexp.MustCompile(`'descr':\s*'([^']+)'`)
	fortranRE = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeRE   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
	unicodeRE = regexp.MustCompile(`^<U(\d+)$`)
)

// readArray decodes one .npy stream.
func readArray(r io.Reader) (*Array, error) {
	magic := make([]byte, 8)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read npy magic: %w", err)
	}
	if !bytes.Equal(magic[:6], npyMagic) {
		return nil, fmt.Errorf("not an npy stream (bad magic)")
	}

	var headerLen int
	switch magic[6] {
	case 1:
		var raw [2]byte
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, fmt.Errorf("failed to read npy header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint16(raw[:]))
	case 2, 3:
		var raw [4]byte
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, fmt.Errorf("failed to read npy header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint32(raw[:]))
	default:
		return nil, fmt.Errorf("unsupported npy format version %d.%d", magic[6], magic[7])
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("failed to read npy header: %w", err)
	}

	descr, shape, err := parseHeader(string(header))
	if err != nil {
		return nil, err
	}

	arr := &Array{Shape: shape}
	count := arr.Len()

	switch {
	case descr == "<f8":
		arr.Kind = Float64
		arr.Floats = make([]float64, count)
		if err := binary.Read(r, binary.LittleEndian, arr.Floats); err != nil {
			return nil, fmt.Errorf("failed to read float data: %w", err)
		}
	case descr == "<i8":
		arr.Kind = Int64
		arr.Ints = make([]int64, count)
		if err := binary.Read(r, binary.LittleEndian, arr.Ints); err != nil {
			return nil, fmt.Errorf("failed to read int data: %w", err)
		}
	case unicodeRE.MatchString(descr):
		arr.Kind = Unicode
		m := unicodeRE.FindStringSubmatch(descr)
		width, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid string dtype %q: %w", descr, err)
		}
		arr.Strings = make([]string, count)
		elem := make([]uint32, width)
		for i := range arr.Strings {
			if err := binary.Read(r, binary.LittleEndian, elem); err != nil {
				return nil, fmt.Errorf("failed to read string data: %w", err)
			}
			arr.Strings[i] = decodeUCS4(elem)
		}
	default:
		return nil, fmt.Errorf("unsupported dtype %q (only '<f8', '<i8' and '<U#' archives are readable)", descr)
	}
	return arr, nil
}

// parseHeader extracts descr and shape from the header dict and rejects
// fortran-order data.
func parseHeader(header string) (string, []int, error) {
	dm := descrRE.FindStringSubmatch(header)
	if dm == nil {
		return "", nil, fmt.Errorf("npy header missing descr: %q", strings.TrimSpace(header))
	}
	fm := fortranRE.FindStringSubmatch(header)
	if fm == nil {
		return "", nil, fmt.Errorf("npy header missing fortran_order: %q", strings.TrimSpace(header))
	}
	if fm[1] == "True" {
		return "", nil, fmt.Errorf("fortran-order arrays are not supported")
	}
	sm := shapeRE.FindStringSubmatch(header)
	if sm == nil {
		return "", nil, fmt.Errorf("npy header missing shape: %q", strings.TrimSpace(header))
	}

	var shape []int
	for _, part := range strings.Split(sm[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return "", nil, fmt.Errorf("invalid shape dimension %q: %w", part, err)
		}
		shape = append(shape, d)
	}
	if shape == nil {
		shape = []int{}
	}
	return dm[1], shape, nil
}

func decodeUCS4(elem []uint32) string {
	end := len(elem)
	for end > 0 && elem[end-1] == 0 {
		end--
	}
	runes := make([]rune, end)
	for i := 0; i < end; i++ {
		runes[i] = rune(elem[i])
	}
	return string(runes)
}
