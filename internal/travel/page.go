package travel

import (
	"fmt"
	"math"
)

const (
	// MinPageSize and MaxPageSize bound the number of travels in one page.
	MinPageSize = 1
	MaxPageSize = 50
)

// Page is a validated, zero-based page request.
type Page struct {
	Size int
	Num  int
}

// NewPage validates size and num and returns the page they describe.
// It returns ErrOutOfRange when size is outside [MinPageSize, MaxPageSize]
// or num is negative.
func NewPage(size, num int) (Page, error) {
	if size < MinPageSize || size > MaxPageSize {
		return Page{}, fmt.Errorf("%w: page size must be in %d-%d, got %d", ErrOutOfRange, MinPageSize, MaxPageSize, size)
	}
	if num < 0 {
		return Page{}, fmt.Errorf("%w: page number must not be negative, got %d", ErrOutOfRange, num)
	}
	return Page{Size: size, Num: num}, nil
}

// Offset returns the number of rows to skip, saturating instead of overflowing.
func (p Page) Offset() int {
	if p.Size > 0 && p.Num > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Num * p.Size
}

// Paginate returns the slice of items covered by p. items must already be
// ordered by identifier. The result is empty, never nil, when the offset is
// past the end.
func Paginate[T any](items []T, p Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end:end]
}
