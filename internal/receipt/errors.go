package receipt

import (
	"errors"
	"fmt"
)

// ErrMalformed marks every decode failure.
var ErrMalformed = errors.New("malformed receipt")

// MalformedReceiptError reports which transaction index failed to decode.
type MalformedReceiptError struct {
	TxIndex int
	Err     error
}

func (e *MalformedReceiptError) Error() string {
	return fmt.Sprintf("malformed receipt at tx index %d: %v", e.TxIndex, e.Err)
}

func (e *MalformedReceiptError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

func malformedErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
}
