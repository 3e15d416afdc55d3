package hive

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks transient transport failures against the
	// engine RPC nodes. Callers should treat prior data as stale, not
	// as zero.
	ErrUnavailable = errors.New("hive engine unavailable")

	// ErrNoSigner is returned when a transfer is requested and no
	// signing capability is configured. This must surface to the user.
	ErrNoSigner = errors.New("no signing capability available")
)

// TransferError is a transfer rejected by the signer or the chain,
// with the reason reported by the rejecting side.
type TransferError struct {
	Reason string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer rejected: %s", e.Reason)
}
