package domain

import (
	"errors"
	"fmt"
)

var (
	// Recoverable: the message is logged and dropped, processing continues.
	ErrUnknownChannel          = errors.New("unknown channel")
	ErrUnrecognizedMessage     = errors.New("unrecognized message")
	ErrInvalidChannelType      = errors.New("invalid channel type")
	ErrUnexpectedTickerMessage = errors.New("unexpected ticker message")
	ErrUnexpectedTradeMessage  = errors.New("unexpected trade message")
	ErrUnexpectedBookMessage   = errors.New("unexpected book message")

	// Fatal to the symbol's book: it has to be rebuilt from a fresh snapshot.
	ErrBookDesync = errors.New("order book desync")
)

// DesyncError describes a delta that could not be applied to a book.
// Raw is set for the order-indexed book.
type DesyncError struct {
	ChanID int64
	Pair   string
	Raw    bool
	Reason string
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("%s: pair=%s chanId=%d: %s", ErrBookDesync, e.Pair, e.ChanID, e.Reason)
}

func (e *DesyncError) Unwrap() error {
	return ErrBookDesync
}

func IsErrDesync(err error) bool {
	return errors.Is(err, ErrBookDesync)
}

// IsRecoverable reports whether err is one of the conditions after which the
// session keeps all of its state and simply moves on to the next message.
func IsRecoverable(err error) bool {
	for _, target := range []error{
		ErrUnknownChannel,
		ErrUnrecognizedMessage,
		ErrInvalidChannelType,
		ErrUnexpectedTickerMessage,
		ErrUnexpectedTradeMessage,
		ErrUnexpectedBookMessage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
