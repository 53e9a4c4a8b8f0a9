package relayer

import (
	"math/big"
	"time"

	"github.com/HexBridge-io/relayer-go/retrier"
)

// DepositProofMode selects how strata-side deposits are proven before the
// EVM mint is submitted.
type DepositProofMode string

const (
	// ProofAttestation correlates the deposit to a signed attestation via
	// its message hash. Transactions on this path must carry a message hash.
	ProofAttestation DepositProofMode = "attestation"
	// ProofBalance observes the bridge vault's token balance instead of an
	// explicit message. A prior unrelated credit of equal or greater size
	// also satisfies it; the deployment accepts that looseness.
	ProofBalance DepositProofMode = "balance"
)

type Config struct {
	// TickInterval between scheduler passes.
	TickInterval time.Duration
	// TransactionTimeout is measured from a transaction's createdAt; once
	// exceeded the transaction fails regardless of state.
	TransactionTimeout time.Duration
	// MaxRetries is the per-transaction budget of failed scheduler steps.
	MaxRetries int
	// DepositProof selects the deposit proof path.
	DepositProof DepositProofMode
	// VaultAddress is the bridge's strata deposit address watched by the
	// balance proof.
	VaultAddress string
	// MinSignerBalance is the native-gas floor under which mint submission
	// is deferred to a later tick. Nil disables the check.
	MinSignerBalance *big.Int
	// ProofRetry configures the retry engine for one proof lookup inside a
	// single tick. MaxAttempts stays at 1 in production because the
	// scheduler itself is the outer retry loop; the timeout still applies.
	ProofRetry retrier.Config
}
