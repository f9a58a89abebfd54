package errors

import (
	"errors"
	"fmt"
)

// Argument errors indicate the caller handed over unusable input.
var (
	// ErrInvalidArgument indicates a payload or key argument is not usable text.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Randomness errors indicate the entropy source could not serve a request.
var (
	// ErrRandomGeneration indicates the secure random source reported an error.
	ErrRandomGeneration = errors.New("random generation failed")
)

// Key errors indicate issues producing or locating key material.
var (
	// ErrKeyGeneration indicates the key generation tool failed.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrFileAccess indicates a key file could not be read or written.
	ErrFileAccess = errors.New("key file access failed")

	// ErrPassphraseRequired indicates the private key is protected and no passphrase was given.
	ErrPassphraseRequired = errors.New("private key is passphrase protected")
)

// Resolution errors indicate the passphrase indirection chain broke.
var (
	// ErrReadinessCheck indicates the management plane never became ready.
	ErrReadinessCheck = errors.New("readiness check failed")

	// ErrSecretResolution indicates the passphrase helper failed.
	ErrSecretResolution = errors.New("secret resolution failed")
)

// Cryptographic errors indicate the cipher operation itself failed.
var (
	// ErrCryptoOperation indicates an RSA or symmetric operation failed,
	// for example on a malformed key or corrupted ciphertext.
	ErrCryptoOperation = errors.New("crypto operation failed")
)

// Error tags an underlying failure with one of the kinds above.
//
// The message is the underlying message unchanged. Pipelines built on top of
// keyward match on exact tool output, so nothing is prepended.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// New tags err with kind. A nil err yields nil. An err that already carries
// kind is returned as is.
func New(kind error, err error) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) && tagged.Kind == kind {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// Newf tags a freshly formatted message with kind.
func Newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf reports which kind err carries, or nil when it carries none.
func KindOf(err error) error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return nil
}

