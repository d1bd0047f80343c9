package utils

import (
	"reflect"
	"slices"
	"strings"
)

func Pointer[T any](t T) *T {
	return &t
}

// TypeOf returns the reflect type of T, even for interface types.
func TypeOf[T any]() reflect.Type {
	var t T
	return reflect.TypeOf(&t).Elem()
}

func MapKeys[K comparable, V any](m map[K]V, cmp ...func(a, b K) int) []K {
	r := make([]K, 0, len(m))
	for k := range m {
		r = append(r, k)
	}
	if len(cmp) > 0 {
		slices.SortFunc(r, cmp[0])
	}
	return r
}

func TransformSlice[E any, A ~[]E, T any](in A, m func(E) T) []T {
	r := make([]T, len(in))
	for i, v := range in {
		r[i] = m(v)
	}
	return r
}

type Stringable interface {
	String() string
}

func CompareStringable[T Stringable](a, b T) int {
	return strings.Compare(a.String(), b.String())
}

func Join[S Stringable](list []S, seps ...string) string {
	return strings.Join(TransformSlice(list, func(s S) string { return s.String() }), OptionalDefaulted(", ", seps...))
}
