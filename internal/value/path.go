package value

import (
	"fmt"
	"strconv"
)

// Segment is one step of a document path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func Key(key string) Segment {
	return Segment{Key: key}
}

func Index(index int) Segment {
	return Segment{Index: index, IsIndex: true}
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return "." + s.Key
}

// FormatPath renders segments as `$.a[0].b`.
func FormatPath(segments []Segment) string {
	out := "$"
	for _, segment := range segments {
		out += segment.String()
	}
	return out
}

// PathErrorKind distinguishes absent locations from wrongly shaped ones.
type PathErrorKind int

const (
	// PathMissing means a key or index does not exist.
	PathMissing PathErrorKind = iota
	// PathTypeMismatch means a container had the wrong kind for the step.
	PathTypeMismatch
)

// PathError reports a failed path operation. Depth is the index of the
// segment that failed; Depth == len(path) blames the addressed value itself.
type PathError struct {
	Kind    PathErrorKind
	Depth   int
	Message string
}

func (e *PathError) Error() string {
	return e.Message
}

func missing(depth int, format string, args ...any) *PathError {
	return &PathError{Kind: PathMissing, Depth: depth, Message: fmt.Sprintf(format, args...)}
}

func mismatch(depth int, format string, args ...any) *PathError {
	return &PathError{Kind: PathTypeMismatch, Depth: depth, Message: fmt.Sprintf(format, args...)}
}

// Step resolves one segment against a container.
func Step(container Value, segment Segment) (Value, error) {
	return step(container, segment, 0)
}

func step(container Value, segment Segment, depth int) (Value, error) {
	switch c := container.(type) {
	case *Object:
		if segment.IsIndex {
			return nil, mismatch(depth, "cannot index object with number %d", segment.Index)
		}
		child, ok := c.Get(segment.Key)
		if !ok {
			return nil, missing(depth, "key %q does not exist", segment.Key)
		}
		return child, nil
	case *Array:
		if !segment.IsIndex {
			return nil, mismatch(depth, "cannot access key %q of array", segment.Key)
		}
		index, ok := c.Normalize(segment.Index)
		if !ok {
			return nil, missing(depth, "index %d out of range for array of length %d", segment.Index, c.Len())
		}
		return c.At(index), nil
	default:
		if segment.IsIndex {
			return nil, mismatch(depth, "cannot index %s with number %d", TypeName(container), segment.Index)
		}
		return nil, mismatch(depth, "cannot access key %q of %s", segment.Key, TypeName(container))
	}
}

// Get reads the value at path.
func Get(root Value, path []Segment) (Value, error) {
	current := root
	for depth, segment := range path {
		next, err := step(current, segment, depth)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// modifier produces the replacement for the addressed value. exists is false
// when the final object key is absent.
type modifier func(target Value, exists bool, depth int) (Value, error)

// modify rebuilds the containers along path around the value returned by fn,
// sharing every untouched subtree with root.
func modify(current Value, path []Segment, depth int, fn modifier) (Value, error) {
	if len(path) == 0 {
		return fn(current, true, depth)
	}
	segment := path[0]

	switch c := current.(type) {
	case *Object:
		if segment.IsIndex {
			return nil, mismatch(depth, "cannot index object with number %d", segment.Index)
		}
		child, ok := c.Get(segment.Key)
		if !ok {
			if len(path) > 1 {
				return nil, missing(depth, "key %q does not exist", segment.Key)
			}
			replacement, err := fn(nil, false, depth)
			if err != nil {
				return nil, err
			}
			return c.With(segment.Key, replacement), nil
		}
		replacement, err := modify(child, path[1:], depth+1, fn)
		if err != nil {
			return nil, err
		}
		return c.With(segment.Key, replacement), nil
	case *Array:
		if !segment.IsIndex {
			return nil, mismatch(depth, "cannot access key %q of array", segment.Key)
		}
		index, ok := c.Normalize(segment.Index)
		if !ok {
			return nil, missing(depth, "index %d out of range for array of length %d", segment.Index, c.Len())
		}
		replacement, err := modify(c.At(index), path[1:], depth+1, fn)
		if err != nil {
			return nil, err
		}
		return c.With(index, replacement), nil
	default:
		_, err := step(current, segment, depth)
		return nil, err
	}
}

// Set stores v at path, creating the final object key when absent. Array
// indices must already exist.
func Set(root Value, path []Segment, v Value) (Value, error) {
	return modify(root, path, 0, func(Value, bool, int) (Value, error) {
		return v, nil
	})
}

// Update replaces the existing value at path with fn(old).
func Update(root Value, path []Segment, fn func(Value) (Value, error)) (Value, error) {
	return modify(root, path, 0, func(target Value, exists bool, depth int) (Value, error) {
		if !exists {
			return nil, missing(depth, "key %q does not exist", path[len(path)-1].Key)
		}
		return fn(target)
	})
}

// Insert adds v to the array at path before position at, or appends when at
// is nil. Valid positions are 0..len; negative positions count from the end.
func Insert(root Value, path []Segment, at *int, v Value) (Value, error) {
	return modify(root, path, 0, func(target Value, exists bool, depth int) (Value, error) {
		if !exists {
			return nil, missing(depth, "key %q does not exist", path[len(path)-1].Key)
		}
		arr, ok := target.(*Array)
		if !ok {
			return nil, mismatch(len(path), "cannot insert into %s", TypeName(target))
		}
		if at == nil {
			return arr.Appended(v), nil
		}

		position := *at
		if position < 0 {
			position += arr.Len() + 1
		}
		if position < 0 || position > arr.Len() {
			return nil, missing(len(path), "insert position %d out of range for array of length %d", *at, arr.Len())
		}
		return arr.Inserted(position, v), nil
	})
}

// Remove deletes the key or index addressed by path. The root itself cannot
// be removed.
func Remove(root Value, path []Segment) (Value, error) {
	if len(path) == 0 {
		return nil, mismatch(0, "cannot remove the document root")
	}
	last := path[len(path)-1]
	parentPath := path[:len(path)-1]

	return modify(root, parentPath, 0, func(parent Value, _ bool, depth int) (Value, error) {
		switch c := parent.(type) {
		case *Object:
			if last.IsIndex {
				return nil, mismatch(depth, "cannot index object with number %d", last.Index)
			}
			out, ok := c.Without(last.Key)
			if !ok {
				return nil, missing(depth, "key %q does not exist", last.Key)
			}
			return out, nil
		case *Array:
			if !last.IsIndex {
				return nil, mismatch(depth, "cannot access key %q of array", last.Key)
			}
			index, ok := c.Normalize(last.Index)
			if !ok {
				return nil, missing(depth, "index %d out of range for array of length %d", last.Index, c.Len())
			}
			return c.Removed(index), nil
		default:
			_, err := step(parent, last, depth)
			return nil, err
		}
	})
}

// Merge applies patch to the object at path following RFC 7396. A missing
// final key is treated as an empty object.
func Merge(root Value, path []Segment, patch *Object) (Value, error) {
	return modify(root, path, 0, func(target Value, exists bool, _ int) (Value, error) {
		if !exists {
			return MergePatch(NewObject(), patch), nil
		}
		obj, ok := target.(*Object)
		if !ok {
			return nil, mismatch(len(path), "cannot merge into %s", TypeName(target))
		}
		return MergePatch(obj, patch), nil
	})
}

// MergePatch implements the RFC 7396 merge algorithm: null members delete,
// object members merge recursively, everything else replaces.
func MergePatch(target *Object, patch *Object) *Object {
	out := target
	for key, patchValue := range patch.All() {
		if _, isNull := patchValue.(Null); isNull || patchValue == nil {
			out, _ = out.Without(key)
			continue
		}

		patchObject, ok := patchValue.(*Object)
		if !ok {
			out = out.With(key, patchValue)
			continue
		}

		existing, _ := out.Get(key)
		existingObject, ok := existing.(*Object)
		if !ok {
			existingObject = NewObject()
		}
		out = out.With(key, MergePatch(existingObject, patchObject))
	}
	return out
}
