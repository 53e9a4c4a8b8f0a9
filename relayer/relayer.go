// The bridge relayer: a single cooperative driver loop that loads pending
// transactions from the queue on a fixed interval and advances each one by
// exactly one state-machine step per tick.
//
// Within a tick, transactions are processed strictly sequentially; that
// sequential guarantee is the mutual exclusion preventing double submission
// within one process. Deployments must run a single relayer instance per
// queue; nothing here arbitrates between two concurrent processes beyond
// the mint ledger's duplicate-proof check.

package relayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/HexBridge-io/relayer-go/agreement"
	"github.com/HexBridge-io/relayer-go/retrier"
	"github.com/HexBridge-io/relayer-go/txqueue"
)

var (
	ErrNoTickInterval       = errors.New("tick interval must be positive")
	ErrNoTransactionTimeout = errors.New("transaction timeout must be positive")
	ErrNoRetryBudget        = errors.New("max retries must be at least 1")
	ErrNoVaultAddress       = errors.New("balance proof requires a vault address")
)

type Relayer struct {
	cfg      *Config
	queue    *txqueue.Queue
	backends Backends
	clock    agreement.Clock
	observer agreement.TxObserver
}

func New(
	cfg *Config,
	queue *txqueue.Queue,
	backends Backends,
	clock agreement.Clock,
	observer agreement.TxObserver,
) (*Relayer, error) {
	if cfg.TickInterval <= 0 {
		return nil, ErrNoTickInterval
	}
	if cfg.TransactionTimeout <= 0 {
		return nil, ErrNoTransactionTimeout
	}
	if cfg.MaxRetries < 1 {
		return nil, ErrNoRetryBudget
	}
	if cfg.DepositProof == "" {
		cfg.DepositProof = ProofAttestation
	}
	if cfg.DepositProof == ProofBalance && cfg.VaultAddress == "" {
		return nil, ErrNoVaultAddress
	}

	if clock == nil {
		clock = agreement.RealClock{}
	}
	if observer == nil {
		observer = agreement.NoopObserver{}
	}

	return &Relayer{
		cfg:      cfg,
		queue:    queue,
		backends: backends,
		clock:    clock,
		observer: observer,
	}, nil
}

// Start runs an immediate out-of-band pass, then ticks on the configured
// interval until ctx is cancelled. An in-flight tick is never interrupted;
// Start returns only after it drains, so callers may treat its return as
// shutdown complete.
func (r *Relayer) Start(ctx context.Context) error {
	logger.Info("starting bridge relayer")
	defer logger.Info("stopped bridge relayer")

	r.Tick(ctx)

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick advances every non-terminal transaction by one step, sequentially.
func (r *Relayer) Tick(ctx context.Context) {
	pending := r.queue.Pending()
	if len(pending) == 0 {
		return
	}
	logger.WithField("count", len(pending)).Debug("scheduler tick")

	for _, tx := range pending {
		if ctx.Err() != nil {
			// shutting down: stop starting new work, the current
			// transaction already finished its step
			return
		}
		r.processTx(ctx, tx)
	}
}

func (r *Relayer) processTx(ctx context.Context, tx *txqueue.BridgeTransaction) {
	prev := tx.Status
	txLogger := logger.WithFields(logger.Fields{
		"txId":   tx.Id,
		"type":   string(tx.Type),
		"status": string(tx.Status),
	})

	// timeout wins over everything, including retry semantics
	if age := r.clock.Now().Sub(tx.CreatedAt); age > r.cfg.TransactionTimeout {
		r.fail(tx, fmt.Sprintf("transaction timeout: age %s exceeds limit %s", age.Round(time.Second), r.cfg.TransactionTimeout))
		txLogger.Warn("transaction timed out")
	} else if err := r.step(ctx, tx); err != nil {
		r.recordStepFailure(tx, err, txLogger)
	}

	tx.UpdatedAt = r.clock.Now()
	if err := r.queue.Put(tx); err != nil {
		txLogger.Errorf("failed to persist transaction: err=%v", err)
	}

	if tx.Status != prev {
		txLogger.WithField("newStatus", string(tx.Status)).Info("transaction advanced")
		r.observer.OnTxEvent(agreement.TxEvent{
			TxId:       tx.Id,
			TxType:     string(tx.Type),
			FromStatus: string(prev),
			ToStatus:   string(tx.Status),
			Error:      tx.Error,
			At:         r.clock.Now(),
		})
	}
}

// recordStepFailure converts a step error into retry bookkeeping. Fatal
// errors exhaust the retry budget on the spot; retryable ones consume one
// attempt and leave the transaction in place with the error visible.
func (r *Relayer) recordStepFailure(tx *txqueue.BridgeTransaction, err error, txLogger *logger.Entry) {
	if retrier.Retryable(err) {
		tx.RetryCount++
	} else {
		tx.RetryCount = r.cfg.MaxRetries
	}

	if tx.RetryCount >= r.cfg.MaxRetries {
		r.fail(tx, err.Error())
		txLogger.Errorf("transaction failed: err=%v", err)
		return
	}

	tx.Error = err.Error()
	txLogger.WithFields(logger.Fields{
		"retryCount": tx.RetryCount,
		"maxRetries": r.cfg.MaxRetries,
	}).Warnf("step failed, transaction stays for retry: err=%v", err)
}

// fail is the single door into the failed state. Failed is sticky and a
// failed transaction always carries a non-empty error.
func (r *Relayer) fail(tx *txqueue.BridgeTransaction, msg string) {
	if tx.Status == txqueue.StatusComplete {
		return
	}
	tx.Status = txqueue.StatusFailed
	tx.CurrentStep = txqueue.StepLabel(txqueue.StatusFailed)
	tx.Error = msg
}
