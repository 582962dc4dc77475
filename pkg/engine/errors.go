// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"
)

const (
	ErrCodeStructural    = "structural"
	ErrCodeMissingAnchor = "missing-anchor"
	ErrCodeThread        = "thread"
)

// CodedError wraps an error with a string code for categorization.
// The code can be extracted from anywhere in an error chain using GetErrorCode.
type CodedError struct {
	Code string
	Err  error
}

func (e CodedError) Error() string {
	return e.Err.Error()
}

func (e CodedError) Unwrap() error {
	return e.Err
}

func MakeCodedError(code string, err error) CodedError {
	return CodedError{Code: code, Err: err}
}

func Errorf(code string, format string, args ...any) error {
	return MakeCodedError(code, fmt.Errorf(format, args...))
}

func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// StructuralError reports an invalid tree shape. These are programming errors
// in the element tree and are never retried.
func StructuralError(format string, args ...any) error {
	return Errorf(ErrCodeStructural, format, args...)
}

func invalidChildError(parent Node, child Node) error {
	return StructuralError("<%s> is not a valid child of <%s>", child.Base().TypeName(), parent.Base().TypeName())
}

// MissingAnchorError reports a virtual node whose required native widget
// reference was read before it was set.
func MissingAnchorError(n Node, what string) error {
	return Errorf(ErrCodeMissingAnchor, "<%s> %s: %s is not set", n.Base().TypeName(), n.Base().Id[:8], what)
}

func IsStructural(err error) bool {
	return GetErrorCode(err) == ErrCodeStructural
}

func IsMissingAnchor(err error) bool {
	return GetErrorCode(err) == ErrCodeMissingAnchor
}
