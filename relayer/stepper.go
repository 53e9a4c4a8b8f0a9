// Per-transaction progression logic. Each scheduler tick performs exactly
// one action per transaction, decided by its current status; the scheduler's
// repeated ticks form the outer retry loop, so every proof lookup here runs
// the retry engine with a single-attempt budget.

package relayer

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/HexBridge-io/relayer-go/common"
	"github.com/HexBridge-io/relayer-go/mintledger"
	"github.com/HexBridge-io/relayer-go/retrier"
	"github.com/HexBridge-io/relayer-go/strataman"
	"github.com/HexBridge-io/relayer-go/txqueue"
)

func (r *Relayer) step(ctx context.Context, tx *txqueue.BridgeTransaction) error {
	switch tx.Status {
	case txqueue.StatusPending, txqueue.StatusConfirming:
		return r.stepConfirm(ctx, tx)
	case txqueue.StatusAttesting:
		return r.stepAttest(ctx, tx)
	case txqueue.StatusMinting:
		return r.stepSubmit(ctx, tx)
	default:
		// terminal states never reach here; Pending() filters them
		return nil
	}
}

// stepConfirm validates the fields the transaction's proof path requires
// and, for EVM-sourced transactions, waits for the source receipt.
func (r *Relayer) stepConfirm(ctx context.Context, tx *txqueue.BridgeTransaction) error {
	if tx.SourceTxHash == "" {
		return &ValidationError{Field: "sourceTxHash", Reason: "is required"}
	}
	if _, err := common.ParseAmount(tx.Amount); err != nil {
		return &ValidationError{Field: "amount", Reason: err.Error()}
	}

	switch tx.Type {
	case txqueue.TypeWithdrawal:
		if tx.MessageHash == "" {
			return &ValidationError{Field: "messageHash", Reason: "is required for withdrawals"}
		}

		err := r.backends.Confirmer.ConfirmTransaction(ctx, tx.SourceTxHash)
		if errors.Is(err, retrier.ErrNotReady) {
			// receipt not mined yet; show progress and wait
			if tx.Status == txqueue.StatusPending {
				r.advance(tx, txqueue.StatusConfirming)
			}
			return nil
		}
		if err != nil {
			return err
		}
		r.advance(tx, txqueue.StatusAttesting)

	default: // deposit, swap
		if r.cfg.DepositProof == ProofAttestation && tx.MessageHash == "" {
			return &ValidationError{Field: "messageHash", Reason: "is required for attestation proof"}
		}
		r.advance(tx, txqueue.StatusAttesting)
	}
	return nil
}

// stepAttest runs one proof lookup. A not-ready outcome leaves the
// transaction in attesting with no error recorded; proof not existing yet
// is the normal state of the world, not a failure.
func (r *Relayer) stepAttest(ctx context.Context, tx *txqueue.BridgeTransaction) error {
	engineCfg := retrier.Config{
		MaxAttempts: 1, // the scheduler supplies the outer retry loop
		RetryDelay:  r.cfg.ProofRetry.RetryDelay,
		Timeout:     r.cfg.ProofRetry.Timeout,
	}

	var proof string
	var err error

	if r.depositProofIsBalance(tx) {
		proof, err = retrier.Do(ctx, r.clock, engineCfg, "verify-vault-balance",
			func(ctx context.Context) (string, error) {
				balance, berr := r.backends.Balances.TokenBalance(ctx, r.cfg.VaultAddress)
				if berr != nil {
					return "", berr
				}
				ok, cerr := strataman.CoversExpected(balance, tx.Amount)
				if cerr != nil {
					return "", retrier.Fatal(cerr)
				}
				if !ok {
					return "", retrier.ErrNotReady
				}
				return "balance:" + balance.String(), nil
			})
	} else {
		proof, err = retrier.Do(ctx, r.clock, engineCfg, "fetch-attestation",
			func(ctx context.Context) (string, error) {
				return r.backends.Attestations.FetchAttestation(ctx, tx.MessageHash)
			})
	}

	if err != nil {
		var rle *retrier.RetryLimitError
		if errors.As(err, &rle) && errors.Is(rle.Last, retrier.ErrNotReady) {
			return nil
		}
		return err
	}

	now := r.clock.Now()
	tx.Attestation = proof
	tx.AttestationFetchedAt = &now
	r.advance(tx, txqueue.StatusMinting)
	return nil
}

// stepSubmit drives the destination-chain submission. The ledger check
// makes this step idempotent across restarts: a proof that already produced
// a destination transaction is adopted, never re-submitted.
func (r *Relayer) stepSubmit(ctx context.Context, tx *txqueue.BridgeTransaction) error {
	proofId := tx.MessageHash
	if proofId == "" {
		proofId = tx.SourceTxHash
	}

	prior, ok, err := r.backends.Ledger.Submitted(proofId)
	if err != nil {
		return fmt.Errorf("mint ledger lookup: %w", err)
	}
	if ok {
		logger.WithFields(logger.Fields{
			"txId":       tx.Id,
			"destTxHash": prior.DestTxHash,
		}).Warn("proof already has a recorded submission, adopting it")
		r.complete(tx, prior.DestTxHash)
		return nil
	}

	var destTxHash string

	switch tx.Type {
	case txqueue.TypeWithdrawal:
		destTxHash, err = r.backends.Releaser.SubmitRelease(ctx, tx.Id, tx.DestinationAddress, tx.Amount, tx.Attestation)
		if err != nil {
			return err
		}

	default: // deposit, swap: mint on the EVM side
		if r.cfg.MinSignerBalance != nil {
			balance, berr := r.backends.Minter.SignerBalance(ctx)
			if berr != nil {
				return fmt.Errorf("signer balance check: %w", berr)
			}
			if balance.Cmp(r.cfg.MinSignerBalance) < 0 {
				// deferred, not failed: record for visibility and wait
				// for the signer to be topped up
				tx.Error = ErrInsufficientGas.Error()
				logger.WithFields(logger.Fields{
					"txId":    tx.Id,
					"balance": balance.String(),
					"minimum": r.cfg.MinSignerBalance.String(),
				}).Warn("mint deferred, relayer signer balance too low")
				return nil
			}
		}

		destTxHash, err = r.backends.Minter.SubmitMint(ctx, tx.MessageHash, tx.Attestation, tx.DestinationAddress, tx.Amount)
		if err != nil {
			return err
		}
	}

	// Record before reporting success. If the record write itself fails the
	// submission has still happened, so the transaction must complete
	// anyway; retrying the step would double-submit.
	if err := r.backends.Ledger.Record(&mintledger.SubmittedMint{
		ProofId:     proofId,
		TxId:        tx.Id,
		DestTxHash:  destTxHash,
		SubmittedAt: r.clock.Now(),
	}); err != nil {
		logger.WithFields(logger.Fields{
			"txId":    tx.Id,
			"proofId": proofId,
		}).Errorf("failed to record submission in mint ledger: err=%v", err)
	}

	r.complete(tx, destTxHash)
	return nil
}

func (r *Relayer) depositProofIsBalance(tx *txqueue.BridgeTransaction) bool {
	return tx.Type != txqueue.TypeWithdrawal && r.cfg.DepositProof == ProofBalance
}

func (r *Relayer) advance(tx *txqueue.BridgeTransaction, status txqueue.TxStatus) {
	tx.Status = status
	tx.CurrentStep = txqueue.StepLabel(status)
	tx.Error = ""
}

func (r *Relayer) complete(tx *txqueue.BridgeTransaction, destTxHash string) {
	tx.DestinationTxHash = destTxHash
	now := r.clock.Now()
	tx.CompletedAt = &now
	r.advance(tx, txqueue.StatusComplete)
}
