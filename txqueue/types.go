package txqueue

import "time"

type TxType string

const (
	TypeDeposit    TxType = "deposit"
	TypeWithdrawal TxType = "withdrawal"
	TypeSwap       TxType = "swap"
)

// TxStatus advances forward only, except the jump to StatusFailed which is
// allowed from any state and is sticky.
type TxStatus string

const (
	StatusPending    TxStatus = "pending"
	StatusConfirming TxStatus = "confirming"
	StatusAttesting  TxStatus = "attesting"
	StatusMinting    TxStatus = "minting"
	StatusComplete   TxStatus = "complete"
	StatusFailed     TxStatus = "failed"
)

func (s TxStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Rank gives the position of a status in the canonical forward order.
// StatusFailed ranks last so the only allowed "jump" still ranks forward.
func (s TxStatus) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirming:
		return 1
	case StatusAttesting:
		return 2
	case StatusMinting:
		return 3
	case StatusComplete:
		return 4
	case StatusFailed:
		return 5
	default:
		return -1
	}
}

// StepLabel is the human-readable phase label kept alongside status for
// external reporting.
func StepLabel(s TxStatus) string {
	switch s {
	case StatusPending:
		return "queued"
	case StatusConfirming:
		return "confirming source transaction"
	case StatusAttesting:
		return "awaiting attestation"
	case StatusMinting:
		return "submitting destination transaction"
	case StatusComplete:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return string(s)
	}
}

// BridgeTransaction is the unit of work driven through the relayer.
// The id is caller-assigned and doubles as the idempotency key for queue
// insertion. Amounts are decimal strings of integer base units; all
// arithmetic happens on big.Int, never floats.
type BridgeTransaction struct {
	Id                 string   `json:"id"`
	Type               TxType   `json:"type"`
	Status             TxStatus `json:"status"`
	CurrentStep        string   `json:"currentStep"`
	SourceChain        string   `json:"sourceChain"`
	DestinationChain   string   `json:"destinationChain"`
	SourceAddress      string   `json:"sourceAddress"`
	DestinationAddress string   `json:"destinationAddress"`
	Amount             string   `json:"amount"`
	SourceTxHash       string   `json:"sourceTxHash"`
	DestinationTxHash  string   `json:"destinationTxHash,omitempty"`
	MessageHash        string   `json:"messageHash,omitempty"`

	Attestation          string     `json:"attestation,omitempty"`
	AttestationFetchedAt *time.Time `json:"attestationFetchedAt,omitempty"`

	RetryCount int    `json:"retryCount"`
	Error      string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Clone returns a deep copy. The queue hands out and accepts copies only,
// so a caller mutating its view never races the scheduler.
func (tx *BridgeTransaction) Clone() *BridgeTransaction {
	cp := *tx
	if tx.AttestationFetchedAt != nil {
		t := *tx.AttestationFetchedAt
		cp.AttestationFetchedAt = &t
	}
	if tx.CompletedAt != nil {
		t := *tx.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
