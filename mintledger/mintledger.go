// Durable record of every destination-chain submission, consulted before
// minting so a proven deposit is credited at most once per relayer database.
// The queue alone cannot give this guarantee: a crash after submission but
// before the queue write would otherwise re-mint on restart.

package mintledger

import (
	"database/sql"
	"errors"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/HexBridge-io/relayer-go/database"
)

var ErrDuplicateProof = errors.New("proof already has a submitted mint")

type MintLedger struct {
	stmtCache *database.StmtCache
}

// SubmittedMint is one recorded destination submission.
type SubmittedMint struct {
	ProofId     string
	TxId        string
	DestTxHash  string
	SubmittedAt time.Time
}

func NewMintLedger(db *sql.DB) (*MintLedger, error) {
	if _, err := db.Exec(submittedMintTable); err != nil {
		return nil, err
	}
	return &MintLedger{
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (ml *MintLedger) Close() {
	ml.stmtCache.Clear()
}

// Record stores a submission. Recording a proofId twice returns
// ErrDuplicateProof; the first submission wins.
func (ml *MintLedger) Record(m *SubmittedMint) error {
	query := `INSERT INTO submittedMint (proofId, txId, destTxHash, submittedAt) VALUES (?, ?, ?, ?)`
	stmt, err := ml.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	if _, err := stmt.Exec(m.ProofId, m.TxId, m.DestTxHash, m.SubmittedAt.Unix()); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateProof
		}
		return err
	}
	return nil
}

// Submitted looks up an earlier submission for proofId.
func (ml *MintLedger) Submitted(proofId string) (*SubmittedMint, bool, error) {
	query := `SELECT proofId, txId, destTxHash, submittedAt FROM submittedMint WHERE proofId = ?`
	stmt, err := ml.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var m SubmittedMint
	var submittedAt int64
	if err := stmt.QueryRow(proofId).Scan(&m.ProofId, &m.TxId, &m.DestTxHash, &submittedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	m.SubmittedAt = time.Unix(submittedAt, 0).UTC()

	return &m, true, nil
}

// go-sqlite3's typed error carries the constraint code; never match on
// message text.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
