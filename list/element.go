package list

// Element is a list node embedded in the record it links. The list never
// allocates or frees elements; the records that embed them own them.
//
// A list has two sentinel elements, the head just before the first data
// element and the tail just after the last one. The head's prev link and
// the tail's next link are nil; in an empty list the sentinels point at
// each other.
type Element[V any] struct {
	prev, next *Element[V]
	Value      V
}

// Next returns the element after e.
// e must be the head or an interior element of a list.
func (e *Element[V]) Next() *Element[V] {
	if e.next == nil {
		panic("list: next of tail or detached element")
	}
	return e.next
}

// Prev returns the element before e.
// e must be an interior element or the tail of a list.
func (e *Element[V]) Prev() *Element[V] {
	if e.prev == nil {
		panic("list: prev of head or detached element")
	}
	return e.prev
}

func isHead[V any](e *Element[V]) bool {
	return e != nil && e.prev == nil && e.next != nil
}

func isInterior[V any](e *Element[V]) bool {
	return e != nil && e.prev != nil && e.next != nil
}

func isTail[V any](e *Element[V]) bool {
	return e != nil && e.prev != nil && e.next == nil
}
