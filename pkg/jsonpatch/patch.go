// Package jsonpatch applies JSON Patch documents (RFC 6902) to an ordered,
// immutable JSON value tree. A patch either applies completely or leaves the
// input document untouched.
package jsonpatch

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPatch = errors.New("malformed patch")
	ErrUnsupportedOp  = errors.New("unsupported operation")
	ErrInvalidPointer = errors.New("invalid pointer")
	ErrPathNotFound   = errors.New("path not found")
	ErrInvalidIndex   = errors.New("invalid array index")
	ErrTestFailed     = errors.New("test failed")
	ErrMoveIntoChild  = errors.New("cannot move a value into one of its children")
	ErrRemoveRoot     = errors.New("cannot remove the document root")
)

// Error locates the failing operation of a patch.
type Error struct {
	Index int
	Op    string
	Path  string
	Err   error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("operation %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("operation %d (%s %s): %v", e.Index, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Op names a patch operation.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
	OpMove    Op = "move"
	OpCopy    Op = "copy"
	OpTest    Op = "test"
)

// Operation is one step of a patch.
type Operation struct {
	Op    Op
	Path  Pointer
	From  Pointer
	Value Value
}

// Patch is an ordered sequence of operations.
type Patch []Operation

// Decode parses a JSON Patch document.
func Decode(data []byte) (Patch, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPatch, err)
	}
	return FromValue(doc)
}

// FromValue converts an already parsed array of operation objects.
func FromValue(doc Value) (Patch, error) {
	if doc.Kind() != KindArray {
		return nil, fmt.Errorf("%w: expected an array of operations, got %s", ErrMalformedPatch, doc.Kind())
	}
	patch := make(Patch, 0, doc.Len())
	for i, raw := range doc.arr {
		op, err := decodeOperation(raw)
		if err != nil {
			return nil, &Error{Index: i, Err: err}
		}
		patch = append(patch, op)
	}
	return patch, nil
}

func decodeOperation(raw Value) (Operation, error) {
	if raw.Kind() != KindObject {
		return Operation{}, fmt.Errorf("%w: operation must be an object", ErrMalformedPatch)
	}
	name, err := stringMember(raw, "op")
	if err != nil {
		return Operation{}, err
	}
	op := Operation{Op: Op(name)}

	pathText, err := stringMember(raw, "path")
	if err != nil {
		return Operation{}, err
	}
	if op.Path, err = ParsePointer(pathText); err != nil {
		return Operation{}, err
	}

	switch op.Op {
	case OpAdd, OpReplace, OpTest:
		value, ok := raw.Get("value")
		if !ok {
			return Operation{}, fmt.Errorf("%w: %q requires a value", ErrMalformedPatch, name)
		}
		op.Value = value
	case OpMove, OpCopy:
		fromText, err := stringMember(raw, "from")
		if err != nil {
			return Operation{}, err
		}
		if op.From, err = ParsePointer(fromText); err != nil {
			return Operation{}, err
		}
	case OpRemove:
	default:
		return Operation{}, fmt.Errorf("%w: %q", ErrUnsupportedOp, name)
	}
	return op, nil
}

func stringMember(raw Value, key string) (string, error) {
	member, ok := raw.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedPatch, key)
	}
	s, ok := member.Str()
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrMalformedPatch, key)
	}
	return s, nil
}

// Apply runs every operation in order against doc. The first failure aborts
// the whole patch with an *Error; doc itself is never modified.
func (p Patch) Apply(doc Value) (Value, error) {
	cur := doc
	for i, op := range p {
		next, err := op.apply(cur)
		if err != nil {
			return doc, &Error{Index: i, Op: string(op.Op), Path: op.Path.String(), Err: err}
		}
		cur = next
	}
	return cur, nil
}

func (o Operation) apply(doc Value) (Value, error) {
	switch o.Op {
	case OpAdd:
		return add(doc, o.Path, o.Value)
	case OpRemove:
		return remove(doc, o.Path)
	case OpReplace:
		return replace(doc, o.Path, o.Value)
	case OpMove:
		if o.Path.HasPrefix(o.From) && len(o.Path) > len(o.From) {
			return Value{}, ErrMoveIntoChild
		}
		value, err := o.From.Resolve(doc)
		if err != nil {
			return Value{}, err
		}
		if len(o.Path) == len(o.From) && o.Path.HasPrefix(o.From) {
			return doc, nil
		}
		removed, err := remove(doc, o.From)
		if err != nil {
			return Value{}, err
		}
		return add(removed, o.Path, value)
	case OpCopy:
		value, err := o.From.Resolve(doc)
		if err != nil {
			return Value{}, err
		}
		return add(doc, o.Path, value)
	case OpTest:
		current, err := o.Path.Resolve(doc)
		if err != nil {
			return Value{}, err
		}
		if !current.Equal(o.Value) {
			return Value{}, ErrTestFailed
		}
		return doc, nil
	default:
		return Value{}, ErrUnsupportedOp
	}
}

func add(doc Value, path Pointer, value Value) (Value, error) {
	if path.IsRoot() {
		return value, nil
	}
	parent, last := path.parent()
	return updateAt(doc, parent, func(container Value) (Value, error) {
		switch container.kind {
		case KindObject:
			return container.with(last, value), nil
		case KindArray:
			if last == "-" {
				return container.inserted(len(container.arr), value), nil
			}
			i, err := arrayIndex(last, len(container.arr))
			if err != nil {
				return Value{}, err
			}
			return container.inserted(i, value), nil
		default:
			return Value{}, fmt.Errorf("%w: parent is a %s", ErrPathNotFound, container.kind)
		}
	})
}

func remove(doc Value, path Pointer) (Value, error) {
	if path.IsRoot() {
		return Value{}, ErrRemoveRoot
	}
	parent, last := path.parent()
	return updateAt(doc, parent, func(container Value) (Value, error) {
		switch container.kind {
		case KindObject:
			if _, ok := container.obj[last]; !ok {
				return Value{}, ErrPathNotFound
			}
			return container.without(last), nil
		case KindArray:
			i, err := arrayIndex(last, len(container.arr)-1)
			if err != nil {
				return Value{}, err
			}
			return container.removed(i), nil
		default:
			return Value{}, fmt.Errorf("%w: parent is a %s", ErrPathNotFound, container.kind)
		}
	})
}

func replace(doc Value, path Pointer, value Value) (Value, error) {
	if path.IsRoot() {
		return value, nil
	}
	parent, last := path.parent()
	return updateAt(doc, parent, func(container Value) (Value, error) {
		switch container.kind {
		case KindObject:
			if _, ok := container.obj[last]; !ok {
				return Value{}, ErrPathNotFound
			}
			return container.with(last, value), nil
		case KindArray:
			i, err := arrayIndex(last, len(container.arr)-1)
			if err != nil {
				return Value{}, err
			}
			return container.replaced(i, value), nil
		default:
			return Value{}, fmt.Errorf("%w: parent is a %s", ErrPathNotFound, container.kind)
		}
	})
}

// updateAt rebuilds the spine leading to path, letting fn produce the new
// value found there. Untouched branches are shared with doc.
func updateAt(doc Value, path Pointer, fn func(Value) (Value, error)) (Value, error) {
	if path.IsRoot() {
		return fn(doc)
	}
	head, rest := path[0], path[1:]
	switch doc.kind {
	case KindObject:
		member, ok := doc.obj[head]
		if !ok {
			return Value{}, ErrPathNotFound
		}
		updated, err := updateAt(member, rest, fn)
		if err != nil {
			return Value{}, err
		}
		return doc.with(head, updated), nil
	case KindArray:
		i, err := arrayIndex(head, len(doc.arr)-1)
		if err != nil {
			return Value{}, err
		}
		updated, err := updateAt(doc.arr[i], rest, fn)
		if err != nil {
			return Value{}, err
		}
		return doc.replaced(i, updated), nil
	default:
		return Value{}, fmt.Errorf("%w: cannot index into %s", ErrPathNotFound, doc.kind)
	}
}
