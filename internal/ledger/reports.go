package ledger

import "github.com/jortega/stocksync/internal/domain"

// Summary bundles the dashboard counters derived from the loaded state.
type Summary struct {
	TotalItems    int
	TotalStock    int
	LowStockItems int
	Locations     int
	Categories    int
}

func (l *Ledger) Summarize() Summary {
	l.mu.RLock()
	s := Summary{
		TotalItems: len(l.items),
		Locations:  len(l.locations),
	}
	for _, it := range l.items {
		s.TotalStock += it.Quantity
		if it.LowStock() {
			s.LowStockItems++
		}
	}
	l.mu.RUnlock()

	s.Categories = len(l.Categories())
	return s
}

// FilterTransactions returns the history filtered by type and/or item, newest
// first. Zero values mean "any".
func (l *Ledger) FilterTransactions(typ domain.TransactionType, itemID string) []domain.Transaction {
	l.mu.RLock()
	var out []domain.Transaction
	for _, tr := range l.transactions {
		if typ != "" && tr.Type != typ {
			continue
		}
		if itemID != "" && tr.ItemID != itemID {
			continue
		}
		out = append(out, tr)
	}
	l.mu.RUnlock()

	sortNewestFirst(out)
	return out
}

// LowStockItems returns the items at or below their restock threshold.
func (l *Ledger) LowStockItems() []domain.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Item
	for _, it := range l.items {
		if it.LowStock() {
			out = append(out, it)
		}
	}
	return out
}
