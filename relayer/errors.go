package relayer

import (
	"errors"
	"fmt"
)

// ValidationError reports a transaction missing a field its proof path
// requires. It is fatal: the transaction fails without any proof-source call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// ErrInsufficientGas defers mint submission until the relayer signer is
// topped up. It is recorded on the transaction but consumes no retries.
var ErrInsufficientGas = errors.New("relayer signer balance below configured minimum")
