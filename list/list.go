package list

// List is a doubly linked list of externally-owned elements.
//
// The zero value is a ready to use empty list. A List must not be copied
// after first use: its sentinels are linked into the element chain.
//
// Iteration follows the sentinel convention: Begin is the first data
// element (or End when the list is empty) and End is the tail sentinel,
// which is never data-bearing.
//
//	for e := l.Begin(); e != l.End(); e = e.Next() { ... }
type List[V any] struct {
	head, tail Element[V]
}

// Less reports whether a is strictly less than b. A Less func must define
// a strict weak ordering; elements equal under it keep their arrival order
// in every operation that sorts or orders.
type Less[V any] func(a, b V) bool

func (l *List[V]) lazyInit() {
	if l.head.next == nil {
		l.head.next = &l.tail
		l.tail.prev = &l.head
	}
}

// Init reinitializes l as an empty list, abandoning any current elements.
func (l *List[V]) Init() {
	l.head.next = &l.tail
	l.tail.prev = &l.head
}

// Begin returns the first data element, or End if the list is empty.
func (l *List[V]) Begin() *Element[V] {
	l.lazyInit()
	return l.head.next
}

// End returns the tail sentinel.
func (l *List[V]) End() *Element[V] {
	l.lazyInit()
	return &l.tail
}

// Rbegin returns the last data element, or Rend if the list is empty.
func (l *List[V]) Rbegin() *Element[V] {
	l.lazyInit()
	return l.tail.prev
}

// Rend returns the head sentinel.
func (l *List[V]) Rend() *Element[V] {
	l.lazyInit()
	return &l.head
}

// Empty reports whether l holds no data elements.
func (l *List[V]) Empty() bool {
	return l.Begin() == l.End()
}

// Size returns the number of data elements in l. It runs in O(n): Splice
// moves ranges between lists in O(1), so no length counter can be kept.
func (l *List[V]) Size() int {
	n := 0
	for e := l.Begin(); e != l.End(); e = e.Next() {
		n++
	}
	return n
}

// Insert splices e into l immediately before before, which must be an
// interior element or the tail sentinel.
func (l *List[V]) Insert(before, e *Element[V]) {
	l.lazyInit()
	if !isInterior(before) && !isTail(before) {
		panic("list: invalid insert position")
	}
	e.prev = before.prev
	e.next = before
	before.prev.next = e
	before.prev = e
}

// Remove unlinks interior element e from its list and returns the element
// that followed it. Using e afterward without reinserting it is undefined;
// the links are cleared so that misuse fails loudly.
func (l *List[V]) Remove(e *Element[V]) *Element[V] {
	if !isInterior(e) {
		panic("list: remove of non-interior element")
	}
	next := e.next
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
	return next
}

// PushFront inserts e at the front of l.
func (l *List[V]) PushFront(e *Element[V]) {
	l.Insert(l.Begin(), e)
}

// PushBack inserts e at the back of l.
func (l *List[V]) PushBack(e *Element[V]) {
	l.Insert(l.End(), e)
}

// Front returns the first data element of l, which must not be empty.
func (l *List[V]) Front() *Element[V] {
	if l.Empty() {
		panic("list: front of empty list")
	}
	return l.head.next
}

// Back returns the last data element of l, which must not be empty.
func (l *List[V]) Back() *Element[V] {
	if l.Empty() {
		panic("list: back of empty list")
	}
	return l.tail.prev
}

// PopFront removes and returns the front element of l, which must not be
// empty.
func (l *List[V]) PopFront() *Element[V] {
	e := l.Front()
	l.Remove(e)
	return e
}

// PopBack removes and returns the back element of l, which must not be
// empty.
func (l *List[V]) PopBack() *Element[V] {
	e := l.Back()
	l.Remove(e)
	return e
}

// InsertOrdered inserts e in order into l, which must already be sorted
// under less. It runs in O(n), scanning from the front for the first
// element greater than e. Ties land after existing equal elements, so
// equal-priority arrivals keep FIFO order.
func (l *List[V]) InsertOrdered(e *Element[V], less Less[V]) {
	if less == nil {
		panic("list: nil comparator")
	}
	pos := l.Begin()
	for pos != l.End() && !less(e.Value, pos.Value) {
		pos = pos.Next()
	}
	l.Insert(pos, e)
}

// Splice removes the half-open range [first, last) from its current list
// and inserts it just before before, which must be an interior element or
// a tail sentinel. It runs in O(1) regardless of the range length and may
// move elements between lists.
func Splice[V any](before, first, last *Element[V]) {
	if !isInterior(before) && !isTail(before) {
		panic("list: invalid splice position")
	}
	if first == last {
		return
	}
	last = last.Prev()
	if !isInterior(first) || !isInterior(last) {
		panic("list: splice range must be interior")
	}

	// Cleanly remove [first, last] from its current list.
	first.prev.next = last.next
	last.next.prev = first.prev

	// Splice it in before the new position.
	first.prev = before.prev
	last.next = before
	before.prev.next = first
	before.prev = last
}

// Sort sorts l under less using a natural iterative merge sort that runs
// in O(n lg n) time and O(1) space. The sort is stable.
func (l *List[V]) Sort(less Less[V]) {
	if less == nil {
		panic("list: nil comparator")
	}
	l.lazyInit()

	// Pass over the list repeatedly, merging adjacent runs of
	// nondecreasing elements, until only one run is left.
	for {
		runs := 0
		var b1 *Element[V]
		for a0 := l.Begin(); a0 != l.End(); a0 = b1 {
			runs++

			// Locate two adjacent runs a0..a1b0 and a1b0..b1.
			a1b0 := findEndOfRun(a0, l.End(), less)
			if a1b0 == l.End() {
				break
			}
			b1 = findEndOfRun(a1b0, l.End(), less)

			inplaceMerge(a0, a1b0, b1, less)
		}
		if runs <= 1 {
			return
		}
	}
}

// findEndOfRun returns the first element in (a, b) that breaks the
// nondecreasing run starting at a, or b if the run reaches it.
func findEndOfRun[V any](a, b *Element[V], less Less[V]) *Element[V] {
	for {
		a = a.Next()
		if a == b || less(a.Value, a.prev.Value) {
			return a
		}
	}
}

// inplaceMerge merges the sorted ranges [a0, a1b0) and [a1b0, b1) into a
// single sorted range ending at b1, by splicing elements of the second
// run in front of their place in the first.
func inplaceMerge[V any](a0, a1b0, b1 *Element[V], less Less[V]) {
	for a0 != a1b0 && a1b0 != b1 {
		if !less(a1b0.Value, a0.Value) {
			a0 = a0.Next()
		} else {
			a1b0 = a1b0.Next()
			Splice(a0, a1b0.Prev(), a1b0)
		}
	}
}

// Unique removes adjacent elements of l equal under less, keeping the
// first of each equal run. l must already be sorted under less. Removed
// elements are appended to duplicates when it is non-nil.
func (l *List[V]) Unique(duplicates *List[V], less Less[V]) {
	if less == nil {
		panic("list: nil comparator")
	}
	if l.Empty() {
		return
	}
	e := l.Begin()
	for {
		next := e.Next()
		if next == l.End() {
			return
		}
		if !less(e.Value, next.Value) && !less(next.Value, e.Value) {
			l.Remove(next)
			if duplicates != nil {
				duplicates.PushBack(next)
			}
		} else {
			e = next
		}
	}
}

// Max returns the largest element of l under less, or End if l is empty.
// Among equal maxima it returns the one appearing last in the list.
func (l *List[V]) Max(less Less[V]) *Element[V] {
	max := l.Begin()
	if max != l.End() {
		for e := max.Next(); e != l.End(); e = e.Next() {
			if !less(e.Value, max.Value) {
				max = e
			}
		}
	}
	return max
}

// Min returns the smallest element of l under less, or End if l is empty.
// Among equal minima it returns the one appearing first in the list.
func (l *List[V]) Min(less Less[V]) *Element[V] {
	min := l.Begin()
	if min != l.End() {
		for e := min.Next(); e != l.End(); e = e.Next() {
			if less(e.Value, min.Value) {
				min = e
			}
		}
	}
	return min
}

// Reverse reverses the order of l in place.
func (l *List[V]) Reverse() {
	if l.Empty() {
		return
	}
	for e := l.Begin(); e != l.End(); e = e.prev {
		e.prev, e.next = e.next, e.prev
	}
	l.head.next, l.tail.prev = l.tail.prev, l.head.next
	l.head.next.prev = &l.head
	l.tail.prev.next = &l.tail
}
