package relayer

import (
	"context"
	"math/big"

	"github.com/HexBridge-io/relayer-go/mintledger"
)

// AttestationSource looks up the attestation for a cross-chain message.
// Pending attestations surface as retrier.ErrNotReady.
type AttestationSource interface {
	FetchAttestation(ctx context.Context, messageHash string) (string, error)
}

// BalanceSource reads the bridged-token balance of a strata address.
type BalanceSource interface {
	TokenBalance(ctx context.Context, address string) (*big.Int, error)
}

// SourceConfirmer checks an EVM transaction's execution outcome.
// Unmined transactions surface as retrier.ErrNotReady.
type SourceConfirmer interface {
	ConfirmTransaction(ctx context.Context, txHash string) error
}

// MintSubmitter submits the EVM-side mint once a deposit is proven.
type MintSubmitter interface {
	SignerBalance(ctx context.Context) (*big.Int, error)
	SubmitMint(ctx context.Context, messageHash, attestation, recipient, amount string) (string, error)
}

// ReleaseSubmitter submits the strata-side release once a withdrawal is proven.
type ReleaseSubmitter interface {
	SubmitRelease(ctx context.Context, txId, recipient, amount, attestation string) (string, error)
}

// Ledger is the durable record of destination submissions keyed by proof.
type Ledger interface {
	Record(m *mintledger.SubmittedMint) error
	Submitted(proofId string) (*mintledger.SubmittedMint, bool, error)
}

// Backends bundles the external collaborators a relayer drives.
type Backends struct {
	Attestations AttestationSource
	Balances     BalanceSource
	Confirmer    SourceConfirmer
	Minter       MintSubmitter
	Releaser     ReleaseSubmitter
	Ledger       Ledger
}
