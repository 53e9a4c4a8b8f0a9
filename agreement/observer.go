package agreement

import "time"

// TxEvent describes one observable transition of a bridge transaction.
type TxEvent struct {
	TxId       string
	TxType     string
	FromStatus string
	ToStatus   string
	Error      string
	At         time.Time
}

// TxObserver receives transaction lifecycle events. The relayer calls it
// synchronously from the tick loop, so implementations must not block;
// hand off to a channel or goroutine if delivery is slow.
type TxObserver interface {
	OnTxEvent(ev TxEvent)
}

// ObserverFunc adapts a plain function to TxObserver.
type ObserverFunc func(ev TxEvent)

func (f ObserverFunc) OnTxEvent(ev TxEvent) { f(ev) }

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnTxEvent(TxEvent) {}

// ChanObserver forwards events to a channel, dropping when the receiver
// lags so the relayer loop never stalls on monitoring.
type ChanObserver struct {
	C chan TxEvent
}

func NewChanObserver(size int) *ChanObserver {
	return &ChanObserver{C: make(chan TxEvent, size)}
}

func (o *ChanObserver) OnTxEvent(ev TxEvent) {
	select {
	case o.C <- ev:
	default:
	}
}
