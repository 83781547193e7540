package common

import (
	stderrors "errors"
	"fmt"
	"github.com/go-errors/errors"
)

// Kind identifies the pipeline stage and reason a decode failed
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingPrefix
	KindInvalidBase45
	KindDecompressionFailed
	KindNotCOSESign1
	KindCBORDecode
	KindMissingClaim
	KindDuplicateClaim
	KindUnsupportedSchemaVersion
	KindSchemaMismatch
)

var kindNames = map[Kind]string{
	KindUnknown:                  "unknown",
	KindMissingPrefix:            "missing_prefix",
	KindInvalidBase45:            "invalid_base45",
	KindDecompressionFailed:      "decompression_failed",
	KindNotCOSESign1:             "not_cose_sign1",
	KindCBORDecode:               "cbor_decode",
	KindMissingClaim:             "missing_claim",
	KindDuplicateClaim:           "duplicate_claim",
	KindUnsupportedSchemaVersion: "unsupported_schema_version",
	KindSchemaMismatch:           "schema_mismatch",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return kindNames[KindUnknown]
	}

	return name
}

// Sentinels for use with errors.Is; they match any FormatError of the same kind
var (
	ErrMissingPrefix            = &FormatError{Kind: KindMissingPrefix}
	ErrInvalidBase45            = &FormatError{Kind: KindInvalidBase45}
	ErrDecompressionFailed      = &FormatError{Kind: KindDecompressionFailed}
	ErrNotCOSESign1             = &FormatError{Kind: KindNotCOSESign1}
	ErrCBORDecode               = &FormatError{Kind: KindCBORDecode}
	ErrMissingClaim             = &FormatError{Kind: KindMissingClaim}
	ErrDuplicateClaim           = &FormatError{Kind: KindDuplicateClaim}
	ErrUnsupportedSchemaVersion = &FormatError{Kind: KindUnsupportedSchemaVersion}
	ErrSchemaMismatch           = &FormatError{Kind: KindSchemaMismatch}
)

// FormatError is returned by every stage of the decode pipeline. Field names the claim or
// certificate field involved, if any.
type FormatError struct {
	Kind  Kind
	Field string
	Err   error
}

func newFormatError(kind Kind, field string, err error) *FormatError {
	return &FormatError{
		Kind:  kind,
		Field: field,
		Err:   err,
	}
}

func (e *FormatError) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}

	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	t, ok := target.(*FormatError)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

// ErrorStack returns the stack trace of the underlying cause when one was recorded
func (e *FormatError) ErrorStack() string {
	var stackErr *errors.Error
	if stderrors.As(e.Err, &stackErr) {
		return stackErr.ErrorStack()
	}

	return e.Error()
}

// KindOf returns the kind of the FormatError in err's chain, or KindUnknown
func KindOf(err error) Kind {
	var fe *FormatError
	if stderrors.As(err, &fe) {
		return fe.Kind
	}

	return KindUnknown
}
