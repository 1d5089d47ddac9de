// Package guest holds the tour validator that runs under proof. It is pure
// logic: inputs arrive through an Env, and the only outputs are the values
// committed to the Env's journal.
package guest

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxCities bounds n so that n² fits the u32 length prefix of a field.
const MaxCities = 1<<16 - 1

var (
	ErrInvalidTour    = errors.New("invalid tour: repeated or out-of-range city")
	ErrLengthOverflow = errors.New("distance overflow")
	ErrTooManyCities  = errors.New("guest: too many cities")
	ErrAborted        = errors.New("guest: execution aborted")
)

// TourError reports which tour position broke the permutation property.
type TourError struct {
	Position int
	City     uint64
	Repeated bool
}

func (e *TourError) Error() string {
	if e.Repeated {
		return fmt.Sprintf("%v: city %d repeated at position %d", ErrInvalidTour, e.City, e.Position)
	}
	return fmt.Sprintf("%v: city %d out of range at position %d", ErrInvalidTour, e.City, e.Position)
}

func (e *TourError) Unwrap() error { return ErrInvalidTour }

// Env is the restricted environment of one guest run.
type Env struct {
	in      inputReader
	journal Journal
}

func NewEnv(input []byte) *Env {
	return &Env{in: inputReader{buf: input}}
}

// Read consumes a single-value field.
func (e *Env) Read(tag Tag) (uint64, error) {
	vs, err := e.in.readField(tag, 1)
	if err != nil {
		return 0, err
	}
	return vs[0], nil
}

// ReadN consumes a field that must hold exactly count values.
func (e *Env) ReadN(tag Tag, count uint64) ([]uint64, error) {
	return e.in.readField(tag, count)
}

// CommitSlice appends vs to the journal.
func (e *Env) CommitSlice(vs []uint64) {
	e.journal = appendUint64s(e.journal, vs)
}

// Commit appends v to the journal.
func (e *Env) Commit(v uint64) {
	e.journal = appendUint64(e.journal, v)
}

// Run executes Main over input. On any failure the partial journal is
// dropped and only the error is returned.
func Run(input []byte) (journal Journal, err error) {
	defer func() {
		if r := recover(); r != nil {
			journal = nil
			err = fmt.Errorf("%w: %v", ErrAborted, r)
		}
	}()

	env := NewEnv(input)
	if err := Main(env); err != nil {
		return nil, err
	}
	if err := env.in.done(); err != nil {
		return nil, err
	}
	return env.journal, nil
}

// Main is the validator entry point: read n and the matrix, commit the
// matrix, read and validate the tour, commit its cyclic length.
func Main(env *Env) error {
	n, err := env.Read(TagCityCount)
	if err != nil {
		return err
	}
	if n > MaxCities {
		return fmt.Errorf("%w: %d > %d", ErrTooManyCities, n, MaxCities)
	}

	dist, err := env.ReadN(TagDistances, n*n)
	if err != nil {
		return err
	}
	env.CommitSlice(dist)

	tour, err := env.ReadN(TagTour, n)
	if err != nil {
		return err
	}
	if err := ValidateTour(n, tour); err != nil {
		return err
	}

	total, err := TourLength(n, dist, tour)
	if err != nil {
		return err
	}
	env.Commit(total)
	return nil
}

// ValidateTour checks that tour visits every city of [0, n) exactly once.
func ValidateTour(n uint64, tour []uint64) error {
	visited := make([]bool, n)
	for i, city := range tour {
		if city >= n {
			return &TourError{Position: i, City: city}
		}
		if visited[city] {
			return &TourError{Position: i, City: city, Repeated: true}
		}
		visited[city] = true
	}
	return nil
}

// TourLength sums dist[tour[i]][tour[(i+1) mod n]] over the closed loop.
// The tour must already be valid.
func TourLength(n uint64, dist, tour []uint64) (uint64, error) {
	var total uint64
	for i := uint64(0); i < n; i++ {
		from, to := tour[i], tour[(i+1)%n]
		sum, carry := bits.Add64(total, dist[from*n+to], 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: at edge %d -> %d", ErrLengthOverflow, from, to)
		}
		total = sum
	}
	return total, nil
}
