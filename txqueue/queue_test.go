package txqueue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, string) {
	path := filepath.Join(t.TempDir(), "data", "queue.json")
	q, err := NewQueue(path)
	require.NoError(t, err)
	return q, path
}

func sampleTx(id string) *BridgeTransaction {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &BridgeTransaction{
		Id:                 id,
		Type:               TypeDeposit,
		Status:             StatusPending,
		CurrentStep:        StepLabel(StatusPending),
		SourceChain:        "strata",
		DestinationChain:   "ethereum",
		SourceAddress:      "0xaaaa000000000000000000000000000000000001",
		DestinationAddress: "0xbbbb000000000000000000000000000000000002",
		Amount:             "5000000",
		SourceTxHash:       "0xsrc" + id,
		MessageHash:        "0xmsg" + id,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
}

func TestColdStart(t *testing.T) {
	q, path := newTestQueue(t)
	assert.Equal(t, 0, q.Len())

	// directory was created even though the file does not exist yet
	_, err := os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	q, path := newTestQueue(t)

	const n = 7
	for i := 0; i < n; i++ {
		tx := sampleTx(fmt.Sprintf("tx-%d", i))
		tx.Amount = fmt.Sprintf("900000000000000000%d", i) // > int64 range
		require.NoError(t, q.Put(tx))
	}

	reloaded, err := NewQueue(path)
	require.NoError(t, err)
	require.Equal(t, n, reloaded.Len())

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("tx-%d", i)
		want, ok := q.Get(id)
		require.True(t, ok)
		got, ok := reloaded.Get(id)
		require.True(t, ok)
		assert.Equal(t, want, got)
		// decimal-string amounts survive byte for byte
		assert.Equal(t, fmt.Sprintf("900000000000000000%d", i), got.Amount)
	}

	// insertion order preserved
	list := reloaded.List()
	for i, tx := range list {
		assert.Equal(t, fmt.Sprintf("tx-%d", i), tx.Id)
	}
}

func TestUpsertOverwrites(t *testing.T) {
	q, _ := newTestQueue(t)

	tx := sampleTx("dup")
	require.NoError(t, q.Put(tx))

	tx2 := sampleTx("dup")
	tx2.Status = StatusAttesting
	tx2.CurrentStep = StepLabel(StatusAttesting)
	require.NoError(t, q.Put(tx2))

	assert.Equal(t, 1, q.Len())
	got, ok := q.Get("dup")
	require.True(t, ok)
	assert.Equal(t, StatusAttesting, got.Status)
}

func TestPutRejectsEmptyId(t *testing.T) {
	q, _ := newTestQueue(t)
	err := q.Put(&BridgeTransaction{})
	assert.ErrorIs(t, err, ErrEmptyTxId)
}

func TestCorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	q, err := NewQueue(path)
	require.NoError(t, err)
	assert.Equal(t, 0, q.Len())
}

func TestListByParty(t *testing.T) {
	q, _ := newTestQueue(t)

	a := sampleTx("a")
	b := sampleTx("b")
	b.SourceAddress = "0xcccc000000000000000000000000000000000003"
	b.DestinationAddress = "0xdddd000000000000000000000000000000000004"
	require.NoError(t, q.Put(a))
	require.NoError(t, q.Put(b))

	// case-insensitive match on either endpoint
	got := q.ListByParty("0xAAAA000000000000000000000000000000000001")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Id)

	got = q.ListByParty("0xDDDD000000000000000000000000000000000004")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Id)

	assert.Empty(t, q.ListByParty("0xeeee000000000000000000000000000000000005"))
}

func TestPendingExcludesTerminal(t *testing.T) {
	q, _ := newTestQueue(t)

	for i, status := range []TxStatus{StatusPending, StatusAttesting, StatusMinting, StatusComplete, StatusFailed} {
		tx := sampleTx(fmt.Sprintf("tx-%d", i))
		tx.Status = status
		require.NoError(t, q.Put(tx))
	}

	pending := q.Pending()
	require.Len(t, pending, 3)
	for _, tx := range pending {
		assert.False(t, tx.Status.Terminal())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	q, _ := newTestQueue(t)
	require.NoError(t, q.Put(sampleTx("iso")))

	got, ok := q.Get("iso")
	require.True(t, ok)
	got.Status = StatusFailed

	again, ok := q.Get("iso")
	require.True(t, ok)
	assert.Equal(t, StatusPending, again.Status)
}

func TestPersistedLayoutIsPairArray(t *testing.T) {
	q, path := newTestQueue(t)
	require.NoError(t, q.Put(sampleTx("pair")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var rows [][2]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 1)

	var id string
	require.NoError(t, json.Unmarshal(rows[0][0], &id))
	assert.Equal(t, "pair", id)
}
