package jsonpatch

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer is a parsed JSON pointer (RFC 6901). The empty pointer addresses
// the whole document.
type Pointer []string

// ParsePointer decodes the textual form, unescaping ~1 and ~0.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("%w: %q must start with '/'", ErrInvalidPointer, s)
	}
	parts := strings.Split(s[1:], "/")
	out := make(Pointer, len(parts))
	for i, part := range parts {
		token, err := unescape(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPointer, s, err)
		}
		out[i] = token
	}
	return out, nil
}

func (p Pointer) IsRoot() bool { return len(p) == 0 }

func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, token := range p {
		b.WriteByte('/')
		b.WriteString(strings.NewReplacer("~", "~0", "/", "~1").Replace(token))
	}
	return b.String()
}

// HasPrefix reports whether p addresses prefix or something below it.
func (p Pointer) HasPrefix(prefix Pointer) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (p Pointer) parent() (Pointer, string) {
	return p[:len(p)-1], p[len(p)-1]
}

// Resolve returns the value addressed by p inside doc.
func (p Pointer) Resolve(doc Value) (Value, error) {
	cur := doc
	for i, token := range p {
		next, err := child(cur, token)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", Pointer(p[:i+1]), err)
		}
		cur = next
	}
	return cur, nil
}

func child(v Value, token string) (Value, error) {
	switch v.kind {
	case KindObject:
		m, ok := v.obj[token]
		if !ok {
			return Value{}, ErrPathNotFound
		}
		return m, nil
	case KindArray:
		i, err := arrayIndex(token, len(v.arr)-1)
		if err != nil {
			return Value{}, err
		}
		return v.arr[i], nil
	default:
		return Value{}, fmt.Errorf("%w: cannot index into %s", ErrPathNotFound, v.kind)
	}
}

// arrayIndex parses an array token and checks it against the inclusive bound max.
func arrayIndex(token string, max int) (int, error) {
	if token == "" || (len(token) > 1 && token[0] == '0') {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, token)
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, token)
		}
	}
	i, err := strconv.Atoi(token)
	if err != nil || i > max {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidIndex, token)
	}
	return i, nil
}

func unescape(token string) (string, error) {
	if !strings.Contains(token, "~") {
		return token, nil
	}
	var b strings.Builder
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c != '~' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(token) {
			return "", fmt.Errorf("dangling '~'")
		}
		switch token[i+1] {
		case '0':
			b.WriteByte('~')
		case '1':
			b.WriteByte('/')
		default:
			return "", fmt.Errorf("invalid escape '~%c'", token[i+1])
		}
		i++
	}
	return b.String(), nil
}
