// In-memory stand-ins for the relayer's collaborators, used by tests and
// the demo wiring. Each one is scripted through plain fields.

package relayer

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/HexBridge-io/relayer-go/mintledger"
	"github.com/HexBridge-io/relayer-go/retrier"
)

// SimAttestor serves a fixed attestation after NotReadyCalls lookups.
type SimAttestor struct {
	Attestation   string
	NotReadyCalls int
	Err           error
	Calls         int
}

func (s *SimAttestor) FetchAttestation(ctx context.Context, messageHash string) (string, error) {
	s.Calls++
	if s.Err != nil {
		return "", s.Err
	}
	if s.Calls <= s.NotReadyCalls {
		return "", retrier.ErrNotReady
	}
	return s.Attestation, nil
}

// SimBalances serves a scripted token balance.
type SimBalances struct {
	Balance *big.Int
	Err     error
	Calls   int
}

func (s *SimBalances) TokenBalance(ctx context.Context, address string) (*big.Int, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return new(big.Int).Set(s.Balance), nil
}

// SimConfirmer confirms after NotReadyCalls receipt lookups.
type SimConfirmer struct {
	NotReadyCalls int
	Err           error
	Calls         int
}

func (s *SimConfirmer) ConfirmTransaction(ctx context.Context, txHash string) error {
	s.Calls++
	if s.Err != nil {
		return s.Err
	}
	if s.Calls <= s.NotReadyCalls {
		return retrier.ErrNotReady
	}
	return nil
}

// SimMinter records mint submissions.
type SimMinter struct {
	Balance    *big.Int
	BalanceErr error
	TxHash     string
	SubmitErr  error
	Submitted  []string // recipient:amount per submission
}

func (s *SimMinter) SignerBalance(ctx context.Context) (*big.Int, error) {
	if s.BalanceErr != nil {
		return nil, s.BalanceErr
	}
	if s.Balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(s.Balance), nil
}

func (s *SimMinter) SubmitMint(ctx context.Context, messageHash, attestation, recipient, amount string) (string, error) {
	if s.SubmitErr != nil {
		return "", s.SubmitErr
	}
	s.Submitted = append(s.Submitted, fmt.Sprintf("%s:%s", recipient, amount))
	return s.TxHash, nil
}

// SimReleaser records release submissions.
type SimReleaser struct {
	TxHash    string
	Err       error
	Submitted []string
}

func (s *SimReleaser) SubmitRelease(ctx context.Context, txId, recipient, amount, attestation string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	s.Submitted = append(s.Submitted, fmt.Sprintf("%s:%s:%s", txId, recipient, amount))
	return s.TxHash, nil
}

// SimLedger is an in-memory mint ledger.
type SimLedger struct {
	mu      sync.Mutex
	records map[string]*mintledger.SubmittedMint
}

func NewSimLedger() *SimLedger {
	return &SimLedger{records: make(map[string]*mintledger.SubmittedMint)}
}

func (s *SimLedger) Record(m *mintledger.SubmittedMint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[m.ProofId]; ok {
		return mintledger.ErrDuplicateProof
	}
	cp := *m
	s.records[m.ProofId] = &cp
	return nil
}

func (s *SimLedger) Submitted(proofId string) (*mintledger.SubmittedMint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[proofId]
	if !ok {
		return nil, false, nil
	}
	cp := *m
	return &cp, true, nil
}
