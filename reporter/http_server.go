// This is a http type of reporter.
// It publishes the transaction queue on read routes and accepts new
// transactions for monitoring on a write route.

package reporter

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HexBridge-io/relayer-go/agreement"
	"github.com/HexBridge-io/relayer-go/relayer"
	"github.com/HexBridge-io/relayer-go/txqueue"
)

const (
	ROUTE_HEALTH  = "/health"
	ROUTE_TX      = "/transactions/:id"
	ROUTE_USER_TX = "/transactions/user/:address"
	ROUTE_MONITOR = "/transactions/monitor"

	DEFAULT_PAGE_LIMIT = 50
)

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data source and ingestion target
	queue *txqueue.Queue
	clock agreement.Clock
}

func NewHttpReporter(serverIP string, serverPort string, queue *txqueue.Queue, clock agreement.Clock) *HttpReporter {
	if clock == nil {
		clock = agreement.RealClock{}
	}
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		queue:      queue,
		clock:      clock,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Define routes & handlers
	router.GET(ROUTE_HEALTH, h.Health)
	router.GET(ROUTE_TX, h.Transaction)
	router.GET(ROUTE_USER_TX, h.UserTransactions)
	router.POST(ROUTE_MONITOR, h.Monitor)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	if err := router.Run(address); err != nil {
		panic(err)
	}
}

// Every error response carries a machine code, a human message and a
// timestamp, so callers never parse prose.
func (h *HttpReporter) fail(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"error":     code,
		"message":   message,
		"timestamp": h.clock.Now().UTC(),
	})
}

func (h *HttpReporter) Health(c *gin.Context) {
	pending := h.queue.Pending()
	for _, tx := range pending {
		if tx.Error == relayer.ErrInsufficientGas.Error() {
			h.fail(c, http.StatusServiceUnavailable, "insufficient_funds", relayer.ErrInsufficientGas.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"pending": len(pending),
	})
}

// Fetch a single transaction by id.
func (h *HttpReporter) Transaction(c *gin.Context) {
	tx, ok := h.queue.Get(c.Param("id"))
	if !ok {
		h.fail(c, http.StatusNotFound, "not_found", "no transaction with that id")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tx})
}

// Fetch the transactions a user participates in, newest first.
func (h *HttpReporter) UserTransactions(c *gin.Context) {
	address := c.Param("address")
	limit, err := positiveIntQuery(c, "limit", DEFAULT_PAGE_LIMIT)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
		return
	}
	offset, err := positiveIntQuery(c, "offset", 0)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "bad_request", "offset must be a non-negative integer")
		return
	}

	txs := h.queue.ListByParty(address)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})

	total := len(txs)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   txs[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Accept a transaction for monitoring. The scheduler picks it up on its
// next tick; this handler only validates and enqueues.
func (h *HttpReporter) Monitor(c *gin.Context) {
	var tx txqueue.BridgeTransaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		h.fail(c, http.StatusBadRequest, "bad_request", "malformed transaction body")
		return
	}

	if tx.Id == "" || tx.Type == "" || tx.SourceTxHash == "" {
		h.fail(c, http.StatusBadRequest, "validation_failed", "id, type and sourceTxHash are required")
		return
	}
	if _, exists := h.queue.Get(tx.Id); exists {
		h.fail(c, http.StatusBadRequest, "validation_failed", "a transaction with that id is already monitored")
		return
	}

	now := h.clock.Now()
	if tx.Status == "" {
		tx.Status = txqueue.StatusPending
	}
	tx.CurrentStep = txqueue.StepLabel(tx.Status)
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if err := h.queue.Put(&tx); err != nil {
		h.fail(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": &tx})
}

func positiveIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
