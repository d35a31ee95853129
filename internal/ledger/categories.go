package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jortega/stocksync/internal/api"
	"github.com/jortega/stocksync/internal/domain"
)

// Categories returns the category set: every distinct category value across
// items plus the explicitly created empty ones, sorted.
func (l *Ledger) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]struct{}, len(l.items)+len(l.extraCategories))
	var out []string
	for _, it := range l.items {
		if _, ok := seen[it.Category]; !ok && it.Category != "" {
			seen[it.Category] = struct{}{}
			out = append(out, it.Category)
		}
	}
	for _, c := range l.extraCategories {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// AddCategory registers an empty category in the side list so it shows up in
// selection lists before any item uses it. Categories are not first-class
// remote records; the side list lives in the ledger and its mirror follows
// items.
func (l *Ledger) AddCategory(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	if l.hasCategory(name) {
		return &api.Error{Kind: api.KindConflict, Message: fmt.Sprintf("category %q already exists", name)}
	}

	l.mu.Lock()
	l.extraCategories = append(l.extraCategories, name)
	l.mu.Unlock()
	return nil
}

// RenameCategory rewrites every item carrying the old value to the new one.
// The remote rename settles first; the local bulk rewrite follows, so readers
// never see a half-renamed set.
func (l *Ledger) RenameCategory(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	if !l.hasCategory(oldName) {
		return &api.Error{Kind: api.KindNotFound, Message: fmt.Sprintf("category %q does not exist", oldName)}
	}
	if l.hasCategory(newName) {
		return &api.Error{Kind: api.KindConflict, Message: fmt.Sprintf("category %q already exists", newName)}
	}

	if err := l.client.RenameCategory(ctx, oldName, newName); err != nil {
		return err
	}

	l.mu.Lock()
	for i := range l.items {
		if l.items[i].Category == oldName {
			l.items[i].Category = newName
		}
	}
	for i := range l.extraCategories {
		if l.extraCategories[i] == oldName {
			l.extraCategories[i] = newName
		}
	}
	l.mu.Unlock()
	l.mirrorItems(ctx)

	l.logger.Info("category renamed", "old", oldName, "new", newName)
	return nil
}

// DeleteCategory removes an empty category. A category still referenced by
// any item is a conflict; reassign or delete those items first.
func (l *Ledger) DeleteCategory(ctx context.Context, name string) error {
	l.mu.RLock()
	inUse := 0
	for _, it := range l.items {
		if it.Category == name {
			inUse++
		}
	}
	known := inUse > 0
	for _, c := range l.extraCategories {
		if c == name {
			known = true
		}
	}
	l.mu.RUnlock()

	if inUse > 0 {
		return &api.Error{Kind: api.KindConflict, Message: fmt.Sprintf("category %q is still used by %d item(s)", name, inUse)}
	}
	if !known {
		return &api.Error{Kind: api.KindNotFound, Message: fmt.Sprintf("category %q does not exist", name)}
	}

	if err := l.client.DeleteCategory(ctx, name); err != nil {
		return err
	}

	l.mu.Lock()
	extras := l.extraCategories[:0]
	for _, c := range l.extraCategories {
		if c != name {
			extras = append(extras, c)
		}
	}
	l.extraCategories = extras
	l.mu.Unlock()

	l.logger.Info("category deleted", "name", name)
	return nil
}

func (l *Ledger) hasCategory(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if it.Category == name {
			return true
		}
	}
	for _, c := range l.extraCategories {
		if c == name {
			return true
		}
	}
	return false
}
