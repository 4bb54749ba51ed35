package stack

import (
	"errors"
	"iter"
	"slices"
)

// ErrOverflow is returned by Push when the stack is at its limit.
var ErrOverflow = errors.New("stack overflow")

// Stack is a LIFO stack that refuses to grow past its limit.
type Stack[T any] struct {
	items []T
	limit int
}

// New returns an empty stack holding at most limit items. A limit of zero
// or less means unbounded.
func New[T any](limit int) *Stack[T] {
	return &Stack[T]{limit: limit}
}

func (s *Stack[T]) Push(item T) error {
	if s.limit > 0 && len(s.items) >= s.limit {
		return ErrOverflow
	}
	s.items = append(s.items, item)
	return nil
}

func (s *Stack[T]) Pop() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}

	index := len(s.items) - 1
	item := s.items[index]
	s.items = s.items[:index]
	return item, true
}

func (s *Stack[T]) Limit() int {
	return s.limit
}

// ToSlice orders from bottom to top of the stack.
func (s *Stack[T]) ToSlice() []T {
	return slices.Clone(s.items)
}

// Backward iterates from the top of the stack to the bottom.
func (s *Stack[T]) Backward() iter.Seq2[int, T] {
	return slices.Backward(s.items)
}

// Contains uses == for comparison and only works with comparable types.
func Contains[T comparable](s *Stack[T], item T) bool {
	return slices.Contains(s.items, item)
}
