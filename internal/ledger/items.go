package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jortega/stocksync/internal/api"
	"github.com/jortega/stocksync/internal/domain"
)

// CreateItem validates the input, persists the item remotely, and commits the
// server's canonical record to memory and the mirror. On any failure the
// ledger state is unchanged.
func (l *Ledger) CreateItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, exists := l.ItemBySKU(in.SKU); exists {
		return nil, &api.Error{Kind: api.KindConflict, Message: fmt.Sprintf("an item with SKU %q already exists", in.SKU)}
	}

	item, err := l.client.CreateItem(ctx, in)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.items = append(l.items, *item)
	l.mu.Unlock()
	l.mirrorItems(ctx)

	l.logger.Info("item created", "item_id", item.ID, "sku", item.SKU)
	return item, nil
}

// UpdateItem validates and persists a full-record edit, replacing the
// in-memory copy with the server's canonical record.
func (l *Ledger) UpdateItem(ctx context.Context, id string, in domain.ItemInput) (*domain.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	unlock := l.lockItem(id)
	defer unlock()

	current, ok := l.ItemByID(id)
	if !ok {
		return nil, &api.Error{Kind: api.KindNotFound, Message: "item not found"}
	}
	if other, exists := l.ItemBySKU(in.SKU); exists && other.ID != current.ID {
		return nil, &api.Error{Kind: api.KindConflict, Message: fmt.Sprintf("an item with SKU %q already exists", in.SKU)}
	}

	item, err := l.client.UpdateItem(ctx, id, in)
	if err != nil {
		return nil, err
	}

	l.replaceItem(*item)
	l.mirrorItems(ctx)
	return item, nil
}

// DeleteItem removes the item remotely, then drops it and its transactions
// from the in-memory state. Whether the remote transaction history is purged
// or merely hidden follows the configured policy; either way the item's
// history no longer appears in any view.
func (l *Ledger) DeleteItem(ctx context.Context, id string) error {
	unlock := l.lockItem(id)
	defer unlock()

	if _, ok := l.ItemByID(id); !ok {
		return &api.Error{Kind: api.KindNotFound, Message: "item not found"}
	}

	if err := l.client.DeleteItem(ctx, id, l.policy.PurgeTransactionsOnDelete); err != nil {
		return err
	}

	l.mu.Lock()
	items := l.items[:0]
	for _, it := range l.items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	l.items = items
	transactions := l.transactions[:0]
	for _, tr := range l.transactions {
		if tr.ItemID != id {
			transactions = append(transactions, tr)
		}
	}
	l.transactions = transactions
	l.mu.Unlock()

	l.mirrorItems(ctx)
	l.mirrorTransactions(ctx)

	l.logger.Info("item deleted", "item_id", id, "purged_transactions", l.policy.PurgeTransactionsOnDelete)
	return nil
}

// AdjustResult is the discriminated outcome of AdjustStock. A SKU miss is an
// expected branch for the scanner flow, not an error.
type AdjustResult int

const (
	// AdjustFailed means a remote call failed; the accompanying error says
	// how and the ledger state is unchanged (or explicitly inconsistent, see
	// AdjustStock).
	AdjustFailed AdjustResult = iota
	// AdjustApplied means the quantity change and its audit transaction both
	// committed.
	AdjustApplied
	// AdjustNotFound means no loaded item carries the SKU. Zero remote
	// writes were performed.
	AdjustNotFound
	// AdjustRejected means the clamp-at-zero policy reduced the change to a
	// no-op (e.g. outbound 5 from a quantity of 0).
	AdjustRejected
)

// AdjustStock changes an item's quantity by quantityChange and records the
// matching audit transaction. The two remote writes form a logical pair: if
// the transaction record fails after the quantity update succeeded, the
// quantity is reverted; if the revert also fails the returned error names the
// divergence instead of hiding it.
//
// Concurrent adjustments against the same item are serialized; the
// read-modify-write never interleaves across the remote round trip.
func (l *Ledger) AdjustStock(ctx context.Context, sku string, quantityChange int, typ domain.TransactionType, notes string) (AdjustResult, error) {
	if !typ.Valid() {
		return AdjustFailed, fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidInput, typ)
	}

	item, ok := l.ItemBySKU(sku)
	if !ok {
		return AdjustNotFound, nil
	}

	unlock := l.lockItem(item.ID)
	defer unlock()

	// Re-read under the item lock; an earlier adjustment may have settled
	// between the resolve and the lock acquisition.
	item, ok = l.ItemByID(item.ID)
	if !ok {
		return AdjustNotFound, nil
	}

	newQuantity := item.Quantity + quantityChange
	if l.policy.ClampNegativeStock && newQuantity < 0 {
		newQuantity = 0
		quantityChange = newQuantity - item.Quantity
		if quantityChange == 0 {
			return AdjustRejected, nil
		}
	}

	updated, err := l.client.UpdateItem(ctx, item.ID, itemInputFrom(item, newQuantity))
	if err != nil {
		return AdjustFailed, err
	}

	tr, err := l.client.CreateTransaction(ctx, domain.TransactionInput{
		ItemID:         item.ID,
		Type:           typ,
		QuantityChange: quantityChange,
		Notes:          notes,
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		// The quantity already moved remotely; compensate so the pair never
		// half-applies silently.
		if _, revertErr := l.client.UpdateItem(ctx, item.ID, itemInputFrom(item, item.Quantity)); revertErr != nil {
			l.logger.Error("stock adjustment diverged: quantity updated but transaction record and revert both failed",
				"item_id", item.ID, "sku", sku, "error", err, "revert_error", revertErr)
			return AdjustFailed, fmt.Errorf(
				"stock level for %s was changed but the movement could not be recorded, and reverting failed; remote state may be inconsistent: %w", sku, err)
		}
		return AdjustFailed, fmt.Errorf("failed to record stock movement, adjustment rolled back: %w", err)
	}

	l.mu.Lock()
	for i := range l.items {
		if l.items[i].ID == updated.ID {
			l.items[i] = *updated
			break
		}
	}
	l.transactions = append([]domain.Transaction{*tr}, l.transactions...)
	l.mu.Unlock()

	l.mirrorItems(ctx)
	l.mirrorTransactions(ctx)

	l.logger.Info("stock adjusted", "sku", sku, "type", typ.Label(), "change", quantityChange, "quantity", updated.Quantity)
	return AdjustApplied, nil
}

func (l *Ledger) replaceItem(item domain.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].ID == item.ID {
			l.items[i] = item
			return
		}
	}
	l.items = append(l.items, item)
}

// itemInputFrom rebuilds the update payload from an existing record with a
// new quantity; everything else is carried over unchanged.
func itemInputFrom(item domain.Item, quantity int) domain.ItemInput {
	return domain.ItemInput{
		SKU:         item.SKU,
		Name:        item.Name,
		Category:    item.Category,
		LocationID:  item.LocationID,
		Quantity:    quantity,
		MinStock:    item.MinStock,
		Description: item.Description,
		ImageURL:    item.ImageURL,
	}
}
