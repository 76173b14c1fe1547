package swap

import (
	"context"
	"errors"
	"fmt"

	"swapexec/internal/model"
)

// Decoder turns raw swap hex into a validated descriptor.
type Decoder interface {
	Parse(ctx context.Context, rawHex string, wallet WalletContext) (*model.SwapDescriptor, error)
}

// WalletContext carries the wallet facts a decoder validates against.
type WalletContext struct {
	NativeAsset string
	Network     string
}

// ErrorKind classifies decode failures.
type ErrorKind string

const (
	KindMalformed   ErrorKind = "malformed"
	KindEnvelope    ErrorKind = "envelope"
	KindTerms       ErrorKind = "terms"
	KindTransaction ErrorKind = "transaction"
)

// DecodeError is returned for any payload the decoder rejects.
type DecodeError struct {
	Kind ErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErrorf(kind ErrorKind, format string, args ...interface{}) error {
	return &DecodeError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the decode error kind of err, or "" if err is not a DecodeError.
func KindOf(err error) ErrorKind {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Kind
	}
	return ""
}
