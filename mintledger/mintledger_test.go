package mintledger

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *MintLedger {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ml, err := NewMintLedger(db)
	require.NoError(t, err)
	t.Cleanup(ml.Close)

	return ml
}

func TestRecordAndLookup(t *testing.T) {
	ml := newTestLedger(t)

	_, ok, err := ml.Submitted("0xmsg01")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ml.Record(&SubmittedMint{
		ProofId:     "0xmsg01",
		TxId:        "tx-1",
		DestTxHash:  "0xmint01",
		SubmittedAt: at,
	}))

	got, ok, err := ml.Submitted("0xmsg01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tx-1", got.TxId)
	assert.Equal(t, "0xmint01", got.DestTxHash)
	assert.Equal(t, at, got.SubmittedAt)
}

func TestDuplicateProofRejected(t *testing.T) {
	ml := newTestLedger(t)

	first := &SubmittedMint{ProofId: "0xmsg02", TxId: "tx-2", DestTxHash: "0xmint02", SubmittedAt: time.Now()}
	require.NoError(t, ml.Record(first))

	dup := &SubmittedMint{ProofId: "0xmsg02", TxId: "tx-other", DestTxHash: "0xmint99", SubmittedAt: time.Now()}
	err := ml.Record(dup)
	assert.ErrorIs(t, err, ErrDuplicateProof)

	// the first submission wins
	got, ok, err := ml.Submitted("0xmsg02")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0xmint02", got.DestTxHash)
}

func TestEmptyProofIdRejected(t *testing.T) {
	ml := newTestLedger(t)

	err := ml.Record(&SubmittedMint{ProofId: "", TxId: "tx-3", DestTxHash: "0xmint03", SubmittedAt: time.Now()})
	assert.Error(t, err)
}
