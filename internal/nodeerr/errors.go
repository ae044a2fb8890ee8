// Package nodeerr defines the structured errors surfaced to the host for
// failed items and skipped images.
package nodeerr

import (
	"errors"
	"fmt"
)

// Code identifies the class of a node error.
type Code string

const (
	CodeUnsupportedInputType     Code = "UNSUPPORTED_INPUT_TYPE"
	CodeUnsupportedImageEncoding Code = "UNSUPPORTED_IMAGE_ENCODING"
	CodeTimeout                  Code = "TIMEOUT"
	CodeMissingBinary            Code = "MISSING_BINARY"
	CodeInvalidPDF               Code = "INVALID_PDF"
	CodeRecognitionFailed        Code = "RECOGNITION_FAILED"
	CodeInvalidConfiguration     Code = "INVALID_CONFIGURATION"
)

// Sentinels for errors.Is comparisons by code.
var (
	ErrUnsupportedInputType     = &Error{Code: CodeUnsupportedInputType}
	ErrUnsupportedImageEncoding = &Error{Code: CodeUnsupportedImageEncoding}
	ErrTimeout                  = &Error{Code: CodeTimeout}
	ErrMissingBinary            = &Error{Code: CodeMissingBinary}
	ErrInvalidPDF               = &Error{Code: CodeInvalidPDF}
	ErrRecognitionFailed        = &Error{Code: CodeRecognitionFailed}
	ErrInvalidConfiguration     = &Error{Code: CodeInvalidConfiguration}
)

// Error is a structured processing error. ItemIndex is -1 when the error is
// not yet bound to an input item.
type Error struct {
	Code      Code
	Message   string
	ItemIndex int
	Details   map[string]any
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.ItemIndex >= 0 && e.Message != "" {
		msg = fmt.Sprintf("%s [item %d]", msg, e.ItemIndex)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithItemIndex returns a copy of e bound to the given input item.
func (e *Error) WithItemIndex(index int) *Error {
	cp := *e
	cp.ItemIndex = index
	return &cp
}

// ToMap converts the error to the detail object attached to error items.
func (e *Error) ToMap() map[string]any {
	result := map[string]any{
		"code":    string(e.Code),
		"message": e.Message,
	}
	if e.ItemIndex >= 0 {
		result["itemIndex"] = e.ItemIndex
	}
	if len(e.Details) > 0 {
		details := make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			details[k] = v
		}
		result["details"] = details
	}
	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}
	return result
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// From converts any error into an *Error, wrapping foreign errors as
// recognition failures.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeRecognitionFailed, Message: err.Error(), ItemIndex: -1, Cause: err}
}

// Factory functions

func NewUnsupportedInputType(field, mimeType string) *Error {
	return &Error{
		Code:      CodeUnsupportedInputType,
		Message:   fmt.Sprintf("field %q has unsupported mime type %q, expected image/* or application/pdf", field, mimeType),
		ItemIndex: -1,
		Details: map[string]any{
			"field":    field,
			"mimeType": mimeType,
		},
	}
}

func NewUnsupportedImageEncoding(name, colorSpace string, bitsPerComponent int, filter string) *Error {
	return &Error{
		Code:      CodeUnsupportedImageEncoding,
		Message:   fmt.Sprintf("image %s: unsupported encoding %s/%d-bit/%s", name, colorSpace, bitsPerComponent, filter),
		ItemIndex: -1,
		Details: map[string]any{
			"name":             name,
			"colorSpace":       colorSpace,
			"bitsPerComponent": bitsPerComponent,
			"filter":           filter,
		},
	}
}

func NewTimeout(timedOut, total int) *Error {
	return &Error{
		Code:      CodeTimeout,
		Message:   fmt.Sprintf("recognition timed out for %d of %d images", timedOut, total),
		ItemIndex: -1,
		Details: map[string]any{
			"timedOut": timedOut,
			"images":   total,
		},
	}
}

func NewMissingBinary(field string, cause error) *Error {
	return &Error{
		Code:      CodeMissingBinary,
		Message:   fmt.Sprintf("no binary data in field %q", field),
		ItemIndex: -1,
		Details:   map[string]any{"field": field},
		Cause:     cause,
	}
}

func NewInvalidPDF(name string, cause error) *Error {
	return &Error{
		Code:      CodeInvalidPDF,
		Message:   fmt.Sprintf("cannot read PDF %s", name),
		ItemIndex: -1,
		Details:   map[string]any{"name": name},
		Cause:     cause,
	}
}

func NewRecognitionFailed(name string, cause error) *Error {
	return &Error{
		Code:      CodeRecognitionFailed,
		Message:   fmt.Sprintf("recognition failed for %s", name),
		ItemIndex: -1,
		Details:   map[string]any{"name": name},
		Cause:     cause,
	}
}

func NewInvalidConfiguration(key string, cause error) *Error {
	return &Error{
		Code:      CodeInvalidConfiguration,
		Message:   fmt.Sprintf("invalid configuration for %s", key),
		ItemIndex: -1,
		Details:   map[string]any{"key": key},
		Cause:     cause,
	}
}
