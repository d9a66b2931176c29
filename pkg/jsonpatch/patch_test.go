package jsonpatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userDoc = `{"id":99,"email":"email@email.com","firstName":"First","lastName":"Last","birthday":"2000-02-02","address":null,"phone":null,"tags":["a","b"]}`

func mustParse(t *testing.T, s string) Value {
	t.Helper()
	v, err := Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func apply(t *testing.T, doc, patch string) (string, error) {
	t.Helper()
	p, err := Decode([]byte(patch))
	if err != nil {
		return "", err
	}
	out, err := p.Apply(mustParse(t, doc))
	if err != nil {
		return "", err
	}
	body, err := out.MarshalJSON()
	require.NoError(t, err)
	return string(body), nil
}

func TestApplyOperations(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		patch string
		want  string
	}{
		{
			name:  "replace keeps member order",
			doc:   `{"a":1,"b":2,"c":3}`,
			patch: `[{"op":"replace","path":"/b","value":"x"}]`,
			want:  `{"a":1,"b":"x","c":3}`,
		},
		{
			name:  "add new member appends",
			doc:   `{"a":1}`,
			patch: `[{"op":"add","path":"/b","value":{"c":[1]}}]`,
			want:  `{"a":1,"b":{"c":[1]}}`,
		},
		{
			name:  "add existing member replaces",
			doc:   `{"a":1,"b":2}`,
			patch: `[{"op":"add","path":"/a","value":null}]`,
			want:  `{"a":null,"b":2}`,
		},
		{
			name:  "add into array and append",
			doc:   `{"l":[1,3]}`,
			patch: `[{"op":"add","path":"/l/1","value":2},{"op":"add","path":"/l/-","value":4}]`,
			want:  `{"l":[1,2,3,4]}`,
		},
		{
			name:  "remove member and item",
			doc:   `{"a":1,"l":[1,2,3]}`,
			patch: `[{"op":"remove","path":"/a"},{"op":"remove","path":"/l/0"}]`,
			want:  `{"l":[2,3]}`,
		},
		{
			name:  "move",
			doc:   `{"a":{"b":1},"c":{}}`,
			patch: `[{"op":"move","from":"/a/b","path":"/c/d"}]`,
			want:  `{"a":{},"c":{"d":1}}`,
		},
		{
			name:  "move onto itself",
			doc:   `{"a":1}`,
			patch: `[{"op":"move","from":"/a","path":"/a"}]`,
			want:  `{"a":1}`,
		},
		{
			name:  "copy",
			doc:   `{"a":[1,2]}`,
			patch: `[{"op":"copy","from":"/a","path":"/b"}]`,
			want:  `{"a":[1,2],"b":[1,2]}`,
		},
		{
			name:  "test passes with equivalent numbers",
			doc:   `{"n":10,"o":{"x":1,"y":2}}`,
			patch: `[{"op":"test","path":"/n","value":1e1},{"op":"test","path":"/o","value":{"y":2,"x":1}}]`,
			want:  `{"n":10,"o":{"x":1,"y":2}}`,
		},
		{
			name:  "escaped pointer tokens",
			doc:   `{"a/b":1,"m~n":2}`,
			patch: `[{"op":"replace","path":"/a~1b","value":3},{"op":"remove","path":"/m~0n"}]`,
			want:  `{"a/b":3}`,
		},
		{
			name:  "replace root",
			doc:   `{"a":1}`,
			patch: `[{"op":"replace","path":"","value":[true]}]`,
			want:  `[true]`,
		},
		{
			name:  "empty patch",
			doc:   userDoc,
			patch: `[]`,
			want:  userDoc,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := apply(t, tt.doc, tt.patch)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyFailures(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		want  error
	}{
		{name: "replace missing member", patch: `[{"op":"replace","path":"/nickname","value":"x"}]`, want: ErrPathNotFound},
		{name: "remove missing member", patch: `[{"op":"remove","path":"/nickname"}]`, want: ErrPathNotFound},
		{name: "add below missing parent", patch: `[{"op":"add","path":"/x/y","value":1}]`, want: ErrPathNotFound},
		{name: "index out of range", patch: `[{"op":"add","path":"/tags/3","value":"c"}]`, want: ErrInvalidIndex},
		{name: "leading zero index", patch: `[{"op":"remove","path":"/tags/01"}]`, want: ErrInvalidIndex},
		{name: "dash outside add", patch: `[{"op":"replace","path":"/tags/-","value":"c"}]`, want: ErrInvalidIndex},
		{name: "test mismatch", patch: `[{"op":"test","path":"/firstName","value":"Other"}]`, want: ErrTestFailed},
		{name: "test kind mismatch", patch: `[{"op":"test","path":"/id","value":"99"}]`, want: ErrTestFailed},
		{name: "move into child", patch: `[{"op":"move","from":"/tags","path":"/tags/0"}]`, want: ErrMoveIntoChild},
		{name: "remove root", patch: `[{"op":"remove","path":""}]`, want: ErrRemoveRoot},
		{name: "index into string", patch: `[{"op":"add","path":"/email/x","value":1}]`, want: ErrPathNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := apply(t, userDoc, tt.patch)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pErr *Error
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, 0, pErr.Index)
		})
	}
}

func TestApplyIsAtomic(t *testing.T) {
	doc := mustParse(t, userDoc)
	p, err := Decode([]byte(`[
		{"op":"replace","path":"/firstName","value":"Changed"},
		{"op":"remove","path":"/tags/0"},
		{"op":"test","path":"/lastName","value":"Nope"}
	]`))
	require.NoError(t, err)

	out, err := p.Apply(doc)
	require.Error(t, err)

	var pErr *Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, 2, pErr.Index)
	assert.Equal(t, "test", pErr.Op)
	assert.Equal(t, "/lastName", pErr.Path)

	assert.True(t, out.Equal(doc))
	first, _ := doc.Get("firstName")
	s, _ := first.Str()
	assert.Equal(t, "First", s)
	tags, _ := doc.Get("tags")
	assert.Equal(t, 2, tags.Len())
}

func TestDecodeRejectsMalformedPatches(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		want  error
	}{
		{name: "not json", patch: `[{`, want: ErrMalformedPatch},
		{name: "not an array", patch: `{"op":"add"}`, want: ErrMalformedPatch},
		{name: "operation not an object", patch: `[1]`, want: ErrMalformedPatch},
		{name: "missing op", patch: `[{"path":"/a"}]`, want: ErrMalformedPatch},
		{name: "unknown op", patch: `[{"op":"merge","path":"/a"}]`, want: ErrUnsupportedOp},
		{name: "missing value", patch: `[{"op":"add","path":"/a"}]`, want: ErrMalformedPatch},
		{name: "missing from", patch: `[{"op":"copy","path":"/a"}]`, want: ErrMalformedPatch},
		{name: "relative path", patch: `[{"op":"remove","path":"a"}]`, want: ErrInvalidPointer},
		{name: "bad escape", patch: `[{"op":"remove","path":"/a~2"}]`, want: ErrInvalidPointer},
		{name: "trailing data", patch: `[] []`, want: ErrMalformedPatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.patch))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeAcceptsNullValue(t *testing.T) {
	p, err := Decode([]byte(`[{"op":"replace","path":"/address","value":null}]`))
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.Equal(t, KindNull, p[0].Value.Kind())
}

func TestPointerRoundTrip(t *testing.T) {
	for _, s := range []string{"", "/", "/a", "/a~1b/c~0d", "/0/-"} {
		p, err := ParsePointer(s)
		require.NoError(t, err)
		assert.Equal(t, s, p.String())
	}
}

func TestToGoRejectsUnknownMembers(t *testing.T) {
	var target struct {
		A int `json:"a"`
	}
	require.NoError(t, mustParse(t, `{"a":1}`).ToGo(&target))
	assert.Equal(t, 1, target.A)
	assert.Error(t, mustParse(t, `{"a":1,"b":2}`).ToGo(&target))
}
