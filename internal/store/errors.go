package store

import (
	"errors"
	"net/http"
)

// notFoundError reports a lookup miss.
type notFoundError struct {
	kind Kind
	key  string
}

func (e notFoundError) Error() string   { return string(e.kind) + " not found: " + e.key }
func (e notFoundError) StatusCode() int { return http.StatusNotFound }

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	var e notFoundError
	return errors.As(err, &e)
}

// NotFound builds a lookup miss error for callers that filter store data
// themselves.
func NotFound(kind Kind, key string) error { return notFoundError{kind: kind, key: key} }

type conflictError struct {
	kind Kind
	key  string
}

func (e conflictError) Error() string   { return string(e.kind) + " already exists: " + e.key }
func (e conflictError) StatusCode() int { return http.StatusConflict }

func IsConflict(err error) bool {
	var e conflictError
	return errors.As(err, &e)
}

type invalidError struct {
	kind Kind
	msg  string
}

func (e invalidError) Error() string   { return "invalid " + string(e.kind) + ": " + e.msg }
func (e invalidError) StatusCode() int { return http.StatusBadRequest }

func IsInvalid(err error) bool {
	var e invalidError
	return errors.As(err, &e)
}
