package testutil

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
)

// Assertions extends require.Assertions to support comparison of proto messages,
// including structs that carry proto messages such as timestamps.
type Assertions struct {
	*require.Assertions
}

var protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()

func Require(t require.TestingT) *Assertions {
	return &Assertions{
		Assertions: require.New(t),
	}
}

func (a *Assertions) Equal(expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	if expected != nil && actual != nil &&
		reflect.TypeOf(expected) == reflect.TypeOf(actual) &&
		containsProto(reflect.TypeOf(expected), make(map[reflect.Type]bool)) {
		a.equalProto(expected, actual, msgAndArgs...)
		return
	}

	// Otherwise, fall back to testify.
	a.Assertions.Equal(expected, actual, msgAndArgs...)
}

func (a *Assertions) equalProto(expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	if diff := cmp.Diff(expected, actual, protocmp.Transform()); diff != "" {
		a.FailNow(diff, msgAndArgs...)
	}
}

// containsProto reports whether values of type t may hold a proto message.
// proto.Size and friends mutate the internal state of a message, which breaks reflect.DeepEqual.
func containsProto(t reflect.Type, visited map[reflect.Type]bool) bool {
	if visited[t] {
		return false
	}
	visited[t] = true

	if t.Implements(protoMessageType) {
		return true
	}

	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return containsProto(t.Elem(), visited)
	case reflect.Map:
		return containsProto(t.Key(), visited) || containsProto(t.Elem(), visited)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			if containsProto(field.Type, visited) {
				return true
			}
		}
	}

	return false
}
