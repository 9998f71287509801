package errors

import (
	"errors"
	"net/http"
)

// Kind classifies failures raised below the transport layer.
type Kind uint8

const (
	KindInternal Kind = iota
	KindDataset
	KindExport
	KindSelection
	KindNotFound
	KindConfig
)

var kindNames = [...]string{
	KindInternal:  "internal",
	KindDataset:   "dataset",
	KindExport:    "export",
	KindSelection: "selection",
	KindNotFound:  "not found",
	KindConfig:    "config",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// AppError wraps a failure with its kind and the values needed to trace it.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
	Fields  map[string]interface{}
}

func (e *AppError) Error() string {
	msg := e.Kind.String() + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

// With records a field reported with the error.
func (e *AppError) With(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// Wrap creates an AppError. err may be nil.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func (e *AppError) apiError() *APIError {
	var status int
	var code string
	switch e.Kind {
	case KindSelection:
		status, code = http.StatusBadRequest, CodeValidationFailed
	case KindNotFound:
		status, code = http.StatusNotFound, CodeNotFound
	case KindDataset:
		status, code = http.StatusServiceUnavailable, CodeDatasetUnavailable
	case KindExport:
		status, code = http.StatusInternalServerError, CodeExportFailed
	default:
		status, code = http.StatusInternalServerError, CodeInternal
	}
	apiErr := New(status, code, e.Message)
	if len(e.Fields) > 0 {
		apiErr.Details = e.Fields
	}
	return apiErr
}
