package loom

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// Column is a type-erased, contiguous buffer of component instances for
// a single component type. It owns the backing memory and the drop
// discipline for its Info, per spec.md §4.2. The storage technique
// (reflect.MakeSlice backing array addressed via unsafe.Pointer, with
// swap-remove for O(1) deletion) is grounded on the in-pack reference
// ECS (other_examples/...lazyecs__ecs.go.go).
type Column struct {
	info     Info
	rtype    reflect.Type
	slice    reflect.Value // the backing []T, len == cap == c.capacity
	ptr      unsafe.Pointer
	length   int
	capacity int
	zeroSize bool
	growth   int
}

// newColumn allocates an empty Column for the component described by
// info, growing its backing array by growth-fold on overflow (spec.md
// §7 / Config.TableGrowthFactor; growth <= 1 falls back to
// DefaultTableGrowthFactor).
func newColumn(info Info, growth int) *Column {
	if growth <= 1 {
		growth = DefaultTableGrowthFactor
	}
	c := &Column{info: info, rtype: info.rtype, growth: growth}
	c.zeroSize = info.Size == 0
	if !c.zeroSize {
		c.grow(8)
	}
	return c
}

func (c *Column) grow(newCap int) {
	if newCap <= c.capacity {
		return
	}
	newSlice := reflect.MakeSlice(reflect.SliceOf(c.rtype), newCap, newCap)
	if c.length > 0 {
		reflect.Copy(newSlice, c.slice.Slice(0, c.length))
	}
	c.slice = newSlice
	c.ptr = newSlice.UnsafePointer()
	c.capacity = newCap
}

func (c *Column) ensureCap(n int) {
	if c.zeroSize || n <= c.capacity {
		return
	}
	newCap := c.capacity * c.growth
	if newCap < n {
		newCap = n
	}
	if newCap < 8 {
		newCap = 8
	}
	c.grow(newCap)
}

// Len returns the logical element count.
func (c *Column) Len() int { return c.length }

// checkType panics (contract violation) if T does not match this
// Column's registered component type.
func checkType[T any](c *Column) {
	var zero T
	want := reflect.TypeOf(zero)
	if want == nil {
		want = reflect.TypeOf((*T)(nil)).Elem()
	}
	if want != c.rtype {
		panic(bark.AddTrace(fmt.Errorf(
			"loom: column type mismatch: column holds %s, caller used %s", c.rtype, want)))
	}
}

// pushTyped moves value into the tail of the column. Precondition: T's
// type equals the column's registered type (verified, panics on mismatch).
func pushTyped[T any](c *Column, value T) int {
	checkType[T](c)
	row := c.length
	if c.zeroSize {
		c.length++
		return row
	}
	c.ensureCap(c.length + 1)
	*(*T)(unsafe.Add(c.ptr, uintptr(row)*c.info.Size)) = value
	c.length++
	return row
}

// pushBytes moves an already-constructed instance into the tail by raw
// byte copy. len(src) must equal Info.Size; the caller guarantees type
// correctness (this is the low-level path used by migration).
func (c *Column) pushBytes(src []byte) int {
	row := c.length
	if c.zeroSize {
		c.length++
		return row
	}
	if len(src) != int(c.info.Size) {
		panic(bark.AddTrace(fmt.Errorf(
			"loom: pushBytes size mismatch: column element size %d, src len %d", c.info.Size, len(src))))
	}
	c.ensureCap(c.length + 1)
	dst := unsafe.Slice((*byte)(unsafe.Add(c.ptr, uintptr(row)*c.info.Size)), c.info.Size)
	copy(dst, src)
	c.length++
	return row
}

// readBytes returns a raw view of row's bytes, used only by migration.
func (c *Column) readBytes(row int) []byte {
	if c.zeroSize {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Add(c.ptr, uintptr(row)*c.info.Size)), c.info.Size)
}

// getTyped returns a pointer to row's value, with the same type check as pushTyped.
func getTyped[T any](c *Column, row int) *T {
	checkType[T](c)
	if c.zeroSize {
		var zero T
		return &zero
	}
	return (*T)(unsafe.Add(c.ptr, uintptr(row)*c.info.Size))
}

// swapRemoveDrop swaps row with the last element, drops the evicted
// value, and shrinks the length by one.
func (c *Column) swapRemoveDrop(row int) {
	last := c.length - 1
	if !c.zeroSize && c.info.Drop != nil {
		c.info.Drop(unsafe.Add(c.ptr, uintptr(row)*c.info.Size))
	}
	if !c.zeroSize && row != last {
		dst := unsafe.Add(c.ptr, uintptr(row)*c.info.Size)
		src := unsafe.Add(c.ptr, uintptr(last)*c.info.Size)
		memmove(dst, src, c.info.Size)
	}
	c.length--
}

// swapRemoveNoDrop is as swapRemoveDrop but never invokes Info.Drop —
// used when the value at row was already moved out by a prior byte copy.
func (c *Column) swapRemoveNoDrop(row int) {
	last := c.length - 1
	if !c.zeroSize && row != last {
		dst := unsafe.Add(c.ptr, uintptr(row)*c.info.Size)
		src := unsafe.Add(c.ptr, uintptr(last)*c.info.Size)
		memmove(dst, src, c.info.Size)
	}
	c.length--
}

func memmove(dst, src unsafe.Pointer, size uintptr) {
	d := unsafe.Slice((*byte)(dst), size)
	s := unsafe.Slice((*byte)(src), size)
	copy(d, s)
}

// ColumnIter is a validated, pointer-stepping iterator over a Column's
// typed values. The type check happens once at construction (spec.md
// §4.2: "≈15 ns amortized across iteration"), not per element.
type ColumnIter[T any] struct {
	col *Column
	i   int
}

// iterTyped constructs a validated iterator over c as type T.
func iterTyped[T any](c *Column) ColumnIter[T] {
	checkType[T](c)
	return ColumnIter[T]{col: c}
}

// Len reports the exact remaining element count (the iterator's size hint).
func (it *ColumnIter[T]) Len() int { return it.col.length - it.i }

// Next advances the iterator, returning the next element pointer and
// whether one was available.
func (it *ColumnIter[T]) Next() (*T, bool) {
	if it.i >= it.col.length {
		return nil, false
	}
	row := it.i
	it.i++
	if it.col.zeroSize {
		var zero T
		return &zero, true
	}
	return (*T)(unsafe.Add(it.col.ptr, uintptr(row)*it.col.info.Size)), true
}
