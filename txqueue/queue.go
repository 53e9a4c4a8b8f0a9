// Durable, restart-safe storage for bridge transactions, keyed by id.
//
// The whole queue is written through to a single JSON file on every
// mutation. Volume is low relative to human-scale bridge timings, so the
// simplicity of a full rewrite wins over an append log. The write goes to a
// temporary file first and is moved into place with an atomic rename, so a
// crash mid-write never corrupts the previous snapshot.

package txqueue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/HexBridge-io/relayer-go/common"
)

var ErrEmptyTxId = errors.New("transaction id must not be empty")

type Queue struct {
	mu    sync.Mutex
	path  string
	txs   map[string]*BridgeTransaction
	order []string // insertion order of ids, preserved across restarts
}

// NewQueue loads the persisted queue from path. A missing file is a cold
// start with an empty queue. An unparseable file is logged and treated as
// empty rather than blocking startup.
func NewQueue(path string) (*Queue, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create queue directory: %w", err)
	}

	q := &Queue{
		path: path,
		txs:  make(map[string]*BridgeTransaction),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return q, nil
		}
		return nil, fmt.Errorf("read queue file: %w", err)
	}

	if err := q.decode(raw); err != nil {
		logger.WithFields(logger.Fields{
			"path": path,
			"err":  err,
		}).Error("queue file is corrupt, starting with an empty queue")
		q.txs = make(map[string]*BridgeTransaction)
		q.order = nil
	}

	return q, nil
}

// Put upserts by id and synchronously persists the whole queue before
// returning. Re-adding an existing id overwrites the stored record.
func (q *Queue) Put(tx *BridgeTransaction) error {
	if tx.Id == "" {
		return ErrEmptyTxId
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.txs[tx.Id]; !ok {
		q.order = append(q.order, tx.Id)
	}
	q.txs[tx.Id] = tx.Clone()

	return q.persist()
}

func (q *Queue) Get(id string) (*BridgeTransaction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	tx, ok := q.txs[id]
	if !ok {
		return nil, false
	}
	return tx.Clone(), true
}

// List returns all transactions in insertion order.
func (q *Queue) List() []*BridgeTransaction {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*BridgeTransaction, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.txs[id].Clone())
	}
	return out
}

// ListByParty returns transactions where address matches either endpoint
// address. Hex addresses match case-insensitively.
func (q *Queue) ListByParty(address string) []*BridgeTransaction {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*BridgeTransaction
	for _, id := range q.order {
		tx := q.txs[id]
		if common.SameHexAddress(tx.SourceAddress, address) ||
			common.SameHexAddress(tx.DestinationAddress, address) {
			out = append(out, tx.Clone())
		}
	}
	return out
}

// Pending returns the snapshot of transactions not in a terminal state.
func (q *Queue) Pending() []*BridgeTransaction {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*BridgeTransaction
	for _, id := range q.order {
		tx := q.txs[id]
		if !tx.Status.Terminal() {
			out = append(out, tx.Clone())
		}
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.txs)
}

// Persisted layout: a JSON array of [id, transaction] pairs.
func (q *Queue) persist() error {
	rows := make([][2]json.RawMessage, 0, len(q.order))
	for _, id := range q.order {
		idRaw, err := json.Marshal(id)
		if err != nil {
			return err
		}
		txRaw, err := json.Marshal(q.txs[id])
		if err != nil {
			return err
		}
		rows = append(rows, [2]json.RawMessage{idRaw, txRaw})
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}

	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write queue tmp file: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return fmt.Errorf("replace queue file: %w", err)
	}
	return nil
}

func (q *Queue) decode(raw []byte) error {
	var rows [][2]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return err
	}

	for _, row := range rows {
		var id string
		if err := json.Unmarshal(row[0], &id); err != nil {
			return err
		}
		tx := &BridgeTransaction{}
		if err := json.Unmarshal(row[1], tx); err != nil {
			return err
		}
		if id == "" {
			return ErrEmptyTxId
		}
		if _, ok := q.txs[id]; !ok {
			q.order = append(q.order, id)
		}
		q.txs[id] = tx
	}
	return nil
}
