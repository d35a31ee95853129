package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jortega/stocksync/internal/api"
	"github.com/jortega/stocksync/internal/domain"
	"github.com/jortega/stocksync/internal/ledger"
)

// Decoder is the external frame-decoding capability: a continuous capture
// loop that delivers decoded text payloads. The workflow pauses it while a
// scan is pending so a stale frame cannot re-trigger a mutation, and resumes
// it when it is ready for the next scan.
type Decoder interface {
	Decodes() <-chan string
	Pause()
	Resume()
}

// stockLedger is the subset of ledger.Ledger the workflow requires.
type stockLedger interface {
	AdjustStock(ctx context.Context, sku string, quantityChange int, typ domain.TransactionType, notes string) (ledger.AdjustResult, error)
	ItemBySKU(sku string) (domain.Item, bool)
}

// Mode selects what a successful decode means.
type Mode int

const (
	// ModeLookup resolves the scanned SKU straight to the item detail view;
	// no quantity input, no mutation.
	ModeLookup Mode = iota
	ModeInbound
	ModeOutbound
)

func (m Mode) String() string {
	switch m {
	case ModeInbound:
		return "inbound"
	case ModeOutbound:
		return "outbound"
	default:
		return "lookup"
	}
}

type State int

const (
	StateAwaitingScan State = iota
	StateAwaitingQuantity
	StateCommitting
)

// OutcomeKind discriminates what the workflow produced for the UI.
type OutcomeKind int

const (
	// OutcomeAwaitingQuantity: a SKU was captured in inbound/outbound mode;
	// the UI should prompt for a quantity (default 1) and confirm or cancel.
	OutcomeAwaitingQuantity OutcomeKind = iota
	// OutcomeCommitted: the stock adjustment settled; ready for the next scan.
	OutcomeCommitted
	// OutcomeNeedsCreation: the SKU is unknown; the UI should offer to create
	// an item seeded with it (hand-off leaves this workflow).
	OutcomeNeedsCreation
	// OutcomeFound / OutcomeNotFound: lookup-mode resolution results.
	OutcomeFound
	OutcomeNotFound
	// OutcomeFailed: the commit failed; the pending scan is kept so the user
	// can retry or cancel.
	OutcomeFailed
)

type Outcome struct {
	Kind    OutcomeKind
	SKU     string
	Item    *domain.Item
	Message string
}

var (
	ErrNoPendingScan  = errors.New("no scan is pending")
	ErrCommitInFlight = errors.New("a commit is in flight")
	ErrScanPending    = errors.New("a scan is pending, confirm or cancel it first")
)

// Workflow drives the scan-to-transaction state machine: capture a decoded
// payload, resolve it to a SKU, collect a quantity, and commit the adjustment
// through the ledger as one operation. All methods are safe for concurrent
// use; an in-flight commit always settles before the next scan is accepted.
type Workflow struct {
	ledger  stockLedger
	decoder Decoder
	logger  *slog.Logger

	mu       sync.Mutex
	mode     Mode
	state    State
	pending  string
	quantity int
}

func New(l stockLedger, d Decoder, logger *slog.Logger) *Workflow {
	return &Workflow{
		ledger:  l,
		decoder: d,
		logger:  logger,
		mode:    ModeLookup,
		state:   StateAwaitingScan,
	}
}

// Run pumps decoded payloads through the workflow until ctx is cancelled or
// the decoder closes its channel, sending each produced outcome to outcomes.
func (w *Workflow) Run(ctx context.Context, outcomes chan<- Outcome) error {
	w.decoder.Resume()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-w.decoder.Decodes():
			if !ok {
				return nil
			}
			if out, emitted := w.HandleDecode(payload); emitted {
				select {
				case outcomes <- out:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// HandleDecode consumes one decoded payload. Payloads arriving while a scan
// is pending or a commit is in flight are stale frames and are dropped.
func (w *Workflow) HandleDecode(payload string) (Outcome, bool) {
	sku := strings.TrimSpace(payload)
	if sku == "" {
		return Outcome{}, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateAwaitingScan {
		w.logger.Debug("dropping stale decode", "sku", sku, "state", w.state)
		return Outcome{}, false
	}

	if w.mode == ModeLookup {
		item, ok := w.ledger.ItemBySKU(sku)
		if !ok {
			return Outcome{Kind: OutcomeNotFound, SKU: sku, Message: "item not found"}, true
		}
		return Outcome{Kind: OutcomeFound, SKU: sku, Item: &item}, true
	}

	w.decoder.Pause()
	w.state = StateAwaitingQuantity
	w.pending = sku
	w.quantity = 1
	return Outcome{Kind: OutcomeAwaitingQuantity, SKU: sku}, true
}

// SetMode switches between lookup, inbound, and outbound. Switching is
// rejected while a scan is pending or committing.
func (w *Workflow) SetMode(m Mode) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateAwaitingScan {
		return ErrScanPending
	}
	w.mode = m
	return nil
}

// SetQuantity adjusts the pending scan's quantity, clamped to a minimum of 1.
func (w *Workflow) SetQuantity(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateAwaitingQuantity {
		return ErrNoPendingScan
	}
	if n < 1 {
		n = 1
	}
	w.quantity = n
	return nil
}

// Cancel discards the pending scan with no side effects and re-arms the
// decoder. An in-flight commit cannot be cancelled; it always settles first.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateCommitting:
		return ErrCommitInFlight
	case StateAwaitingScan:
		return ErrNoPendingScan
	}
	w.reset()
	return nil
}

// Confirm commits the pending scan through the ledger. On success the
// workflow returns to awaiting the next scan; an unknown SKU hands off to
// item creation; a failure keeps the pending scan so the user may retry.
func (w *Workflow) Confirm(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	if w.state != StateAwaitingQuantity {
		w.mu.Unlock()
		return Outcome{}, ErrNoPendingScan
	}
	w.state = StateCommitting
	sku := w.pending
	quantity := w.quantity
	mode := w.mode
	w.mu.Unlock()

	change := quantity
	typ := domain.TransactionInbound
	if mode == ModeOutbound {
		change = -quantity
		typ = domain.TransactionOutbound
	}

	// The remote call runs outside the workflow lock; the Committing state
	// keeps decodes and cancellation out until it settles.
	res, err := w.ledger.AdjustStock(ctx, sku, change, typ, "")

	w.mu.Lock()
	defer w.mu.Unlock()

	switch res {
	case ledger.AdjustApplied:
		w.reset()
		sign := "+"
		if change < 0 {
			sign = "-"
		}
		return Outcome{
			Kind:    OutcomeCommitted,
			SKU:     sku,
			Message: fmt.Sprintf("stock updated: SKU %s, change %s%d", sku, sign, quantity),
		}, nil
	case ledger.AdjustNotFound:
		w.reset()
		return Outcome{
			Kind:    OutcomeNeedsCreation,
			SKU:     sku,
			Message: "item not found, do you want to add it?",
		}, nil
	case ledger.AdjustRejected:
		w.state = StateAwaitingQuantity
		return Outcome{
			Kind:    OutcomeFailed,
			SKU:     sku,
			Message: "stock cannot go below zero",
		}, nil
	default:
		w.state = StateAwaitingQuantity
		msg := "stock update failed"
		if err != nil {
			msg = api.UserMessage(err)
		}
		return Outcome{Kind: OutcomeFailed, SKU: sku, Message: msg}, err
	}
}

// reset returns to the ready-to-scan state and re-arms the decoder. Callers
// hold w.mu.
func (w *Workflow) reset() {
	w.pending = ""
	w.quantity = 1
	w.state = StateAwaitingScan
	w.decoder.Resume()
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Pending returns the held SKU and quantity while awaiting confirmation.
func (w *Workflow) Pending() (sku string, quantity int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending, w.quantity
}
