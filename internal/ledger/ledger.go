package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jortega/stocksync/internal/domain"
)

// inventoryClient is the subset of api.Client the ledger requires.
type inventoryClient interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	CreateItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, id string, in domain.ItemInput) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string, purgeTransactions bool) error

	ListLocations(ctx context.Context) ([]domain.Location, error)
	CreateLocation(ctx context.Context, in domain.LocationInput) (*domain.Location, error)
	UpdateLocation(ctx context.Context, id string, in domain.LocationInput) (*domain.Location, error)
	DeleteLocation(ctx context.Context, id string) error

	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	CreateTransaction(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error)

	ListCategories(ctx context.Context) ([]string, error)
	RenameCategory(ctx context.Context, oldName, newName string) error
	DeleteCategory(ctx context.Context, name string) error
}

// mirrorStore is the subset of cache.Store the ledger requires. Mirror
// failures are never fatal; the remote store stays authoritative.
type mirrorStore interface {
	ReplaceItems(ctx context.Context, items []domain.Item) error
	ReplaceLocations(ctx context.Context, locations []domain.Location) error
	ReplaceTransactions(ctx context.Context, transactions []domain.Transaction) error
	ReadItems(ctx context.Context) ([]domain.Item, error)
	ReadLocations(ctx context.Context) ([]domain.Location, error)
	ReadTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// Policy resolves the product decisions the ledger leaves configurable:
// whether deleting an item purges its remote transaction history and whether
// stock adjustments clamp at zero instead of going negative.
type Policy struct {
	PurgeTransactionsOnDelete bool
	ClampNegativeStock        bool
}

// Ledger is the authoritative in-memory state for the session's items,
// locations, categories, and transactions. Mutations commit pessimistically:
// the remote call settles first, then memory, then the durable mirror.
// Readers only ever see pre- or post-mutation snapshots.
type Ledger struct {
	client inventoryClient
	mirror mirrorStore
	logger *slog.Logger
	policy Policy

	mu           sync.RWMutex
	loaded       bool
	items        []domain.Item
	locations    []domain.Location
	transactions []domain.Transaction
	// extraCategories holds explicitly created categories that no item
	// references yet; the rest of the category set is derived from items.
	extraCategories []string

	// itemLocks serializes mutations per item so two concurrent adjustments
	// cannot interleave their read-modify-write across the remote round trip.
	lockMu    sync.Mutex
	itemLocks map[string]*sync.Mutex
}

func New(client inventoryClient, mirror mirrorStore, logger *slog.Logger, policy Policy) *Ledger {
	return &Ledger{
		client:    client,
		mirror:    mirror,
		logger:    logger,
		policy:    policy,
		itemLocks: make(map[string]*sync.Mutex),
	}
}

// lockItem acquires the per-item mutation lock and returns its unlock func.
func (l *Ledger) lockItem(id string) func() {
	l.lockMu.Lock()
	m, ok := l.itemLocks[id]
	if !ok {
		m = &sync.Mutex{}
		l.itemLocks[id] = m
	}
	l.lockMu.Unlock()
	m.Lock()
	return m.Unlock
}

// LoadAll fetches the session's working set from the remote service. The
// three record collections are fetched in parallel and committed all or
// nothing; the explicit category list is best-effort since the set is
// derivable from items. On success the mirror is refreshed.
func (l *Ledger) LoadAll(ctx context.Context) error {
	var (
		wg           sync.WaitGroup
		items        []domain.Item
		locations    []domain.Location
		transactions []domain.Transaction
		categories   []string
		errs         [3]error
		catErr       error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		items, errs[0] = l.client.ListItems(ctx)
	}()
	go func() {
		defer wg.Done()
		locations, errs[1] = l.client.ListLocations(ctx)
	}()
	go func() {
		defer wg.Done()
		transactions, errs[2] = l.client.ListTransactions(ctx)
	}()
	go func() {
		defer wg.Done()
		categories, catErr = l.client.ListCategories(ctx)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("failed to load inventory: %w", err)
		}
	}
	if catErr != nil {
		l.logger.Warn("failed to load explicit categories, deriving from items only", "error", catErr)
		categories = nil
	}

	l.mu.Lock()
	l.items = items
	l.locations = locations
	l.transactions = transactions
	l.extraCategories = subtractDerived(categories, items)
	l.loaded = true
	l.mu.Unlock()

	l.logger.Info("inventory loaded",
		"items", len(items), "locations", len(locations), "transactions", len(transactions))

	l.mirrorItems(ctx)
	l.mirrorLocations(ctx)
	l.mirrorTransactions(ctx)
	return nil
}

// WarmFromCache populates the working set from the durable mirror when the
// remote service is unreachable. The view may be stale; mutations still go
// through the remote service, which stays authoritative.
func (l *Ledger) WarmFromCache(ctx context.Context) error {
	items, err := l.mirror.ReadItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm from cache: %w", err)
	}
	locations, err := l.mirror.ReadLocations(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm from cache: %w", err)
	}
	transactions, err := l.mirror.ReadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm from cache: %w", err)
	}

	l.mu.Lock()
	l.items = items
	l.locations = locations
	l.transactions = transactions
	l.loaded = true
	l.mu.Unlock()

	l.logger.Info("working set warmed from cache",
		"items", len(items), "locations", len(locations), "transactions", len(transactions))
	return nil
}

// Loaded reports whether LoadAll has committed a working set.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Items returns a snapshot copy of all items.
func (l *Ledger) Items() []domain.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Item, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) ItemByID(id string) (domain.Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.Item{}, false
}

func (l *Ledger) ItemBySKU(sku string) (domain.Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.itemBySKULocked(sku)
}

func (l *Ledger) itemBySKULocked(sku string) (domain.Item, bool) {
	for _, it := range l.items {
		if it.SKU == sku {
			return it, true
		}
	}
	return domain.Item{}, false
}

// Locations returns a snapshot copy of all locations.
func (l *Ledger) Locations() []domain.Location {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Location, len(l.locations))
	copy(out, l.locations)
	return out
}

// Transactions returns a snapshot copy of the transaction history, newest
// first.
func (l *Ledger) Transactions() []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Transaction, len(l.transactions))
	copy(out, l.transactions)
	sortNewestFirst(out)
	return out
}

// TransactionsForItem returns the item's history, newest first.
func (l *Ledger) TransactionsForItem(itemID string) []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Transaction
	for _, tr := range l.transactions {
		if tr.ItemID == itemID {
			out = append(out, tr)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(trs []domain.Transaction) {
	sort.SliceStable(trs, func(i, j int) bool {
		return trs[i].Timestamp.After(trs[j].Timestamp)
	})
}

// subtractDerived keeps only the explicit categories that no item already
// accounts for.
func subtractDerived(categories []string, items []domain.Item) []string {
	if len(categories) == 0 {
		return nil
	}
	derived := make(map[string]struct{}, len(items))
	for _, it := range items {
		derived[it.Category] = struct{}{}
	}
	var extras []string
	for _, c := range categories {
		if _, ok := derived[c]; !ok {
			extras = append(extras, c)
		}
	}
	return extras
}

// mirror helpers copy the settled in-memory state into the durable cache.
// Failures are logged and swallowed: the cache is an offline convenience,
// not the source of truth.

func (l *Ledger) mirrorItems(ctx context.Context) {
	if err := l.mirror.ReplaceItems(ctx, l.Items()); err != nil {
		l.logger.Error("failed to mirror items to cache", "error", err)
	}
}

func (l *Ledger) mirrorLocations(ctx context.Context) {
	if err := l.mirror.ReplaceLocations(ctx, l.Locations()); err != nil {
		l.logger.Error("failed to mirror locations to cache", "error", err)
	}
}

func (l *Ledger) mirrorTransactions(ctx context.Context) {
	if err := l.mirror.ReplaceTransactions(ctx, l.Transactions()); err != nil {
		l.logger.Error("failed to mirror transactions to cache", "error", err)
	}
}
