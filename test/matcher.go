package test

import (
	"go.uber.org/mock/gomock"
)

type funcMatcher[T any] struct {
	description string
	match       func(val T) bool
}

func (f *funcMatcher[T]) Matches(val interface{}) bool {
	v, ok := val.(T)
	return ok && f.match(v)
}

func (f *funcMatcher[T]) String() string {
	return f.description
}

// Match is a gomock matcher for arguments of type T accepted by m
func Match[T any](description string, m func(v T) bool) gomock.Matcher {
	return &funcMatcher[T]{
		description: description,
		match:       m,
	}
}
