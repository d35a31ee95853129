package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jortega/stocksync/internal/domain"
)

// Store is the durable shadow copy of the ledger's working set: items,
// locations, and transactions, each keyed by record id. It opens its SQLite
// database lazily on first use; the open handle is reused for the life of
// the process.
type Store struct {
	path string

	once    sync.Once
	db      *sql.DB
	initErr error
}

func New(path string) *Store {
	return &Store{path: path}
}

var testDBCounter atomic.Int64

// NewForTesting returns a Store backed by a fresh in-memory database. Each
// call gets its own database so parallel tests cannot see each other's rows.
func NewForTesting() (*Store, error) {
	dsn := fmt.Sprintf("file:cachetest%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{path: dsn, db: db}
	s.once.Do(func() {})
	return s, nil
}

func (s *Store) ensure() (*sql.DB, error) {
	s.once.Do(func() {
		s.db, s.initErr = open(fileDSN(s.path))
	})
	if s.initErr != nil {
		return nil, storageErr("open", s.initErr)
	}
	return s.db, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReplaceItems atomically clears and repopulates the items collection.
func (s *Store) ReplaceItems(ctx context.Context, items []domain.Item) error {
	return s.replace(ctx, "items", func(tx *sql.Tx) error {
		for _, it := range items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO items (id, sku, name, category, location_id, quantity, min_stock, description, image_url, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, it.ID, it.SKU, it.Name, it.Category, it.LocationID, it.Quantity, it.MinStock, it.Description, it.ImageURL, it.CreatedAt, it.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert item %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) ReadItems(ctx context.Context) ([]domain.Item, error) {
	db, err := s.ensure()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, sku, name, category, location_id, quantity, min_stock, description, image_url, created_at, updated_at
		FROM items
	`)
	if err != nil {
		return nil, storageErr("read items", err)
	}
	defer closeRows(rows)

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.SKU, &it.Name, &it.Category, &it.LocationID, &it.Quantity, &it.MinStock, &it.Description, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, storageErr("scan item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read items", err)
	}
	return items, nil
}

// ReplaceLocations atomically clears and repopulates the locations collection.
func (s *Store) ReplaceLocations(ctx context.Context, locations []domain.Location) error {
	return s.replace(ctx, "locations", func(tx *sql.Tx) error {
		for _, loc := range locations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO locations (id, name, description, created_at) VALUES (?, ?, ?, ?)
			`, loc.ID, loc.Name, loc.Description, loc.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert location %s: %w", loc.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) ReadLocations(ctx context.Context) ([]domain.Location, error) {
	db, err := s.ensure()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, name, description, created_at FROM locations`)
	if err != nil {
		return nil, storageErr("read locations", err)
	}
	defer closeRows(rows)

	var locations []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Description, &loc.CreatedAt); err != nil {
			return nil, storageErr("scan location", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read locations", err)
	}
	return locations, nil
}

// ReplaceTransactions atomically clears and repopulates the transactions
// collection.
func (s *Store) ReplaceTransactions(ctx context.Context, transactions []domain.Transaction) error {
	return s.replace(ctx, "transactions", func(tx *sql.Tx) error {
		for _, tr := range transactions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transactions (id, item_id, type, quantity_change, notes, timestamp)
				VALUES (?, ?, ?, ?, ?, ?)
			`, tr.ID, tr.ItemID, string(tr.Type), tr.QuantityChange, tr.Notes, tr.Timestamp)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", tr.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) ReadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	db, err := s.ensure()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, item_id, type, quantity_change, notes, timestamp FROM transactions
	`)
	if err != nil {
		return nil, storageErr("read transactions", err)
	}
	defer closeRows(rows)

	var transactions []domain.Transaction
	for rows.Next() {
		var tr domain.Transaction
		var typ string
		if err := rows.Scan(&tr.ID, &tr.ItemID, &typ, &tr.QuantityChange, &tr.Notes, &tr.Timestamp); err != nil {
			return nil, storageErr("scan transaction", err)
		}
		tr.Type = domain.TransactionType(typ)
		transactions = append(transactions, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read transactions", err)
	}
	return transactions, nil
}

// replace runs a clear-then-insert for one collection inside a single SQL
// transaction so a failure never leaves the collection partially written.
func (s *Store) replace(ctx context.Context, table string, insert func(tx *sql.Tx) error) error {
	db, err := s.ensure()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("replace "+table, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return storageErr("replace "+table, err)
	}
	if err := insert(tx); err != nil {
		return storageErr("replace "+table, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("replace "+table, err)
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
