// Package snapshot exports and imports the full grid state in a compact
// little-endian binary layout. The neighbour graph is not stored; callers
// rebuild it after loading.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"cellworld/internal/world"
)

var (
	ErrBadMagic     = errors.New("snapshot: bad magic")
	ErrVersion      = errors.New("snapshot: unsupported version")
	ErrTruncated    = errors.New("snapshot: truncated data")
	ErrUnknownField = errors.New("snapshot: unknown field tag")
	ErrHeader       = errors.New("snapshot: inconsistent header")
)

// Version is the layout version written by Write.
const Version uint16 = 1

var magic = [4]byte{'C', 'W', 'S', 'N'}

var le = binary.LittleEndian

type header struct {
	Magic    [4]byte
	Version  uint16
	Features uint16
	N        uint32
	W        uint32
	H        uint32
	SeaLevel float32
	Fields   uint16
}

// headerSize is the encoded size of header.
const headerSize = 26

type field struct {
	tag uint8
	ptr any
}

// fields lists every storable slice with its stable tag.
func fields(w *world.World) []field {
	return []field{
		{1, &w.X}, {2, &w.Y}, {3, &w.Height}, {4, &w.Temperature}, {5, &w.Moisture},
		{6, &w.Water}, {7, &w.Flux}, {8, &w.WindDir}, {9, &w.WindStrength},
		{10, &w.Infrastructure}, {11, &w.Wealth}, {12, &w.Defense}, {13, &w.Chaos},
		{20, &w.Population}, {21, &w.Culture}, {22, &w.Faction},
		{23, &w.Starving}, {24, &w.Tier}, {25, &w.Building}, {26, &w.Resources},
	}
}

func (f field) present() bool {
	switch p := f.ptr.(type) {
	case *[]float32:
		return *p != nil
	case *[]int32:
		return *p != nil
	case *[]bool:
		return *p != nil
	case *[]world.Tier:
		return *p != nil
	case *[]world.Building:
		return *p != nil
	case *[]world.Inventory:
		return *p != nil
	default:
		return false
	}
}

// width is the encoded size of one cell of the field.
func (f field) width() int64 {
	switch f.ptr.(type) {
	case *[]float32, *[]int32:
		return 4
	case *[]world.Inventory:
		return 4 * world.MaxResources
	default:
		return 1
	}
}

// data returns the slice value to encode, allocating it for n cells first
// when alloc is set and the slice is missing.
func (f field) data(n int, alloc bool) any {
	switch p := f.ptr.(type) {
	case *[]float32:
		if alloc && len(*p) != n {
			*p = make([]float32, n)
		}
		return *p
	case *[]int32:
		if alloc && len(*p) != n {
			*p = make([]int32, n)
		}
		return *p
	case *[]bool:
		if alloc && len(*p) != n {
			*p = make([]bool, n)
		}
		return *p
	case *[]world.Tier:
		if alloc && len(*p) != n {
			*p = make([]world.Tier, n)
		}
		return *p
	case *[]world.Building:
		if alloc && len(*p) != n {
			*p = make([]world.Building, n)
		}
		return *p
	case *[]world.Inventory:
		if alloc && len(*p) != n {
			*p = make([]world.Inventory, n)
		}
		return *p
	default:
		return nil
	}
}

// Write encodes every allocated field of w.
func Write(out io.Writer, w *world.World) error {
	if err := w.Validate(); err != nil {
		return err
	}
	all := fields(w)
	var stored []field
	for _, f := range all {
		if f.present() {
			stored = append(stored, f)
		}
	}
	bw := bufio.NewWriter(out)
	h := header{
		Magic:    magic,
		Version:  Version,
		Features: uint16(w.Features()),
		N:        uint32(w.N),
		W:        uint32(w.W),
		H:        uint32(w.H),
		SeaLevel: w.SeaLevel,
		Fields:   uint16(len(stored)),
	}
	if err := binary.Write(bw, le, h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, f := range stored {
		if err := bw.WriteByte(f.tag); err != nil {
			return err
		}
		if err := binary.Write(bw, le, f.data(w.N, false)); err != nil {
			return fmt.Errorf("write field %d: %w", f.tag, err)
		}
	}
	return bw.Flush()
}

// Read decodes a world written by Write. The header is checked before any
// cell data is allocated: the cell count is bounded by world.MaxCells and,
// when the size of in is known, every field must fit in what is left of it.
func Read(in io.Reader) (*world.World, error) {
	budget, sized := remaining(in)
	br := bufio.NewReader(in)
	var h header
	if err := binary.Read(br, le, &h); err != nil {
		return nil, truncated(err)
	}
	if h.Magic != magic {
		return nil, ErrBadMagic
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if err := h.check(); err != nil {
		return nil, err
	}
	n := int(h.N)
	budget -= headerSize
	if sized && budget < int64(h.Fields)*(1+int64(n)) {
		return nil, fmt.Errorf("%w: %d fields of %d cells need more than %d bytes", ErrTruncated, h.Fields, n, budget)
	}

	w := world.New(n)
	w.W, w.H = int(h.W), int(h.H)
	w.SeaLevel = h.SeaLevel

	byTag := make(map[uint8]field)
	for _, f := range fields(w) {
		byTag[f.tag] = f
	}
	for range h.Fields {
		tag, err := br.ReadByte()
		if err != nil {
			return nil, truncated(err)
		}
		f, ok := byTag[tag]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownField, tag)
		}
		need := int64(n) * f.width()
		budget -= 1 + need
		if sized && budget < 0 {
			return nil, fmt.Errorf("%w: field %d needs %d bytes", ErrTruncated, tag, need)
		}
		if err := binary.Read(br, le, f.data(n, true)); err != nil {
			return nil, truncated(err)
		}
	}
	w.Enable(world.Feature(h.Features))
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (h header) check() error {
	if h.N > world.MaxCells {
		return fmt.Errorf("%w: %d cells exceeds %d", ErrHeader, h.N, world.MaxCells)
	}
	if h.W > 0 && uint64(h.W)*uint64(h.H) != uint64(h.N) {
		return fmt.Errorf("%w: %dx%d lattice with %d cells", ErrHeader, h.W, h.H, h.N)
	}
	if int(h.Fields) > len(fields(&world.World{})) {
		return fmt.Errorf("%w: %d fields", ErrHeader, h.Fields)
	}
	return nil
}

// remaining reports how many unread bytes in holds, when that is knowable.
func remaining(in io.Reader) (int64, bool) {
	switch r := in.(type) {
	case interface{ Len() int }:
		return int64(r.Len()), true
	case *os.File:
		st, err := r.Stat()
		if err != nil || !st.Mode().IsRegular() {
			return 0, false
		}
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, false
		}
		return st.Size() - pos, true
	default:
		return 0, false
	}
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}

// Save writes w to path.
func Save(path string, w *world.World) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := Write(f, w); err != nil {
		f.Close()
		return fmt.Errorf("save snapshot %s: %w", path, err)
	}
	return f.Close()
}

// Load reads a world from path.
func Load(path string) (*world.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	w, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return w, nil
}
