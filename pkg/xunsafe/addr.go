package xunsafe

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/flier/art64/pkg/xunsafe/layout"
)

// Addr is the address of a value of type T, represented as a plain integer
// rather than a pointer so that it can be stored, compared, and done
// arithmetic on without the GC treating it as a live reference.
//
// An Addr does not keep its pointee alive; callers are responsible for
// ensuring the referent outlives any Addr pointing into it (typically by
// way of an enclosing [Arena]).
type Addr[T any] int

// AddrOf returns the address of *p.
func AddrOf[T any](p *T) Addr[T] {
	return Addr[T](uintptr(unsafe.Pointer(p)))
}

// EndOf returns the address one past the end of s.
func EndOf[T any](s []T) Addr[T] {
	if len(s) == 0 {
		return Addr[T](uintptr(unsafe.Pointer(unsafe.SliceData(s))))
	}
	return AddrOf(&s[len(s)-1]).Add(1)
}

// AssertValid converts this address back to a pointer.
//
// The name is a reminder that this operation is only sound if the address
// still points into live memory; callers that materialize an Addr purely for
// arithmetic should avoid calling this on intermediate results.
func (a Addr[T]) AssertValid() *T {
	return (*T)(unsafe.Pointer(uintptr(a)))
}

// Add returns the address n elements of T past a.
func (a Addr[T]) Add(n int) Addr[T] {
	return Addr[T](uintptr(a) + uintptr(n)*uintptr(layout.Size[T]()))
}

// ByteAdd returns the address n bytes past a.
func (a Addr[T]) ByteAdd(n int) Addr[T] {
	return Addr[T](uintptr(a) + uintptr(n))
}

// Sub returns the number of elements of T between a and b (a - b).
func (a Addr[T]) Sub(b Addr[T]) int {
	return int(uintptr(a)-uintptr(b)) / layout.Size[T]()
}

// Padding returns the number of bytes needed to round a up to align.
func (a Addr[T]) Padding(align int) int {
	return layout.Padding(int(a), align)
}

// RoundUpTo rounds a up to the given alignment.
func (a Addr[T]) RoundUpTo(align int) Addr[T] {
	return Addr[T](layout.RoundUp(int(a), align))
}

// SignBit reports whether a's most significant bit is set.
func (a Addr[T]) SignBit() bool {
	return a < 0
}

// SignBitMask returns all-ones if SignBit is set, else all-zeros.
func (a Addr[T]) SignBitMask() Addr[T] {
	if a.SignBit() {
		return ^Addr[T](0)
	}
	return 0
}

// ClearSignBit returns a with its most significant bit cleared.
func (a Addr[T]) ClearSignBit() Addr[T] {
	return a & math.MaxInt
}

// Format implements fmt.Formatter, printing the address as a hex pointer.
func (a Addr[T]) Format(s fmt.State, verb rune) {
	switch verb {
	case 'x':
		fmt.Fprintf(s, "%x", uintptr(a))
	default:
		fmt.Fprintf(s, "0x%x", uintptr(a))
	}
}
