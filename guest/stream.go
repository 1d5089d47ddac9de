package guest

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Tag identifies a field of the input stream.
type Tag uint8

const (
	TagCityCount Tag = 1
	TagDistances Tag = 2
	TagTour      Tag = 3
)

func (t Tag) String() string {
	switch t {
	case TagCityCount:
		return "city-count"
	case TagDistances:
		return "distances"
	case TagTour:
		return "tour"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// fieldHeaderSize is tag (1 byte) + count (u32 LE).
const fieldHeaderSize = 5

var (
	ErrSchemaMismatch = errors.New("guest: input schema mismatch")
	ErrShortInput     = errors.New("guest: input stream truncated")
	ErrTrailingInput  = errors.New("guest: unread input remaining")
)

// InputWriter builds the input stream a guest run consumes. Every field is
// encoded as tag ‖ count(u32 LE) ‖ count × u64 LE, so a reader that expects a
// different layout fails instead of silently reinterpreting words.
type InputWriter struct {
	buf []byte
}

func NewInputWriter() *InputWriter {
	return &InputWriter{}
}

// WriteUint64 appends a single-value field.
func (w *InputWriter) WriteUint64(tag Tag, v uint64) {
	w.WriteUint64s(tag, []uint64{v})
}

// WriteUint64s appends a field holding vs in order.
func (w *InputWriter) WriteUint64s(tag Tag, vs []uint64) {
	w.buf = append(w.buf, byte(tag))
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(len(vs)))
	for _, v := range vs {
		w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	}
}

// Bytes returns the encoded stream.
func (w *InputWriter) Bytes() []byte {
	return w.buf
}

// inputReader is the guest side of the stream. It only moves forward.
type inputReader struct {
	buf []byte
	off int
}

func (r *inputReader) readField(tag Tag, count uint64) ([]uint64, error) {
	if len(r.buf)-r.off < fieldHeaderSize {
		return nil, fmt.Errorf("%w: reading %s header at offset %d", ErrShortInput, tag, r.off)
	}
	got := Tag(r.buf[r.off])
	if got != tag {
		return nil, fmt.Errorf("%w: expected %s, found %s at offset %d", ErrSchemaMismatch, tag, got, r.off)
	}
	n := uint64(binary.LittleEndian.Uint32(r.buf[r.off+1:]))
	if n != count {
		return nil, fmt.Errorf("%w: %s holds %d values, expected %d", ErrSchemaMismatch, tag, n, count)
	}
	r.off += fieldHeaderSize

	if uint64(len(r.buf)-r.off) < n*8 {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d left", ErrShortInput, tag, n*8, len(r.buf)-r.off)
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(r.buf[r.off:])
		r.off += 8
	}
	return out, nil
}

func (r *inputReader) done() error {
	if r.off != len(r.buf) {
		return fmt.Errorf("%w: %d bytes", ErrTrailingInput, len(r.buf)-r.off)
	}
	return nil
}

// Input is the decoded content of a tour-validation input stream.
type Input struct {
	Cities    uint64
	Distances []uint64
	Tour      []uint64
}

// DecodeInput reads the stream in the order Main does. The prover uses it
// to recover the private witness of a run.
func DecodeInput(input []byte) (*Input, error) {
	r := &inputReader{buf: input}
	n, err := r.readField(TagCityCount, 1)
	if err != nil {
		return nil, err
	}
	if n[0] > MaxCities {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyCities, n[0], MaxCities)
	}
	dist, err := r.readField(TagDistances, n[0]*n[0])
	if err != nil {
		return nil, err
	}
	tour, err := r.readField(TagTour, n[0])
	if err != nil {
		return nil, err
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return &Input{Cities: n[0], Distances: dist, Tour: tour}, nil
}
