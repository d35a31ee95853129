package ledger

import (
	"context"

	"github.com/jortega/stocksync/internal/api"
	"github.com/jortega/stocksync/internal/domain"
)

func (l *Ledger) CreateLocation(ctx context.Context, in domain.LocationInput) (*domain.Location, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	loc, err := l.client.CreateLocation(ctx, in)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.locations = append(l.locations, *loc)
	l.mu.Unlock()
	l.mirrorLocations(ctx)

	l.logger.Info("location created", "location_id", loc.ID, "name", loc.Name)
	return loc, nil
}

func (l *Ledger) UpdateLocation(ctx context.Context, id string, in domain.LocationInput) (*domain.Location, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	loc, err := l.client.UpdateLocation(ctx, id, in)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	for i := range l.locations {
		if l.locations[i].ID == loc.ID {
			l.locations[i] = *loc
			break
		}
	}
	l.mu.Unlock()
	l.mirrorLocations(ctx)
	return loc, nil
}

// DeleteLocation refuses to orphan items: a location still referenced by any
// item is a conflict, checked locally before the remote call (the server
// enforces the same constraint).
func (l *Ledger) DeleteLocation(ctx context.Context, id string) error {
	l.mu.RLock()
	inUse := 0
	for _, it := range l.items {
		if it.LocationID == id {
			inUse++
		}
	}
	l.mu.RUnlock()
	if inUse > 0 {
		return &api.Error{Kind: api.KindConflict, Message: "location still has items assigned to it"}
	}

	if err := l.client.DeleteLocation(ctx, id); err != nil {
		return err
	}

	l.mu.Lock()
	locations := l.locations[:0]
	for _, loc := range l.locations {
		if loc.ID != id {
			locations = append(locations, loc)
		}
	}
	l.locations = locations
	l.mu.Unlock()
	l.mirrorLocations(ctx)

	l.logger.Info("location deleted", "location_id", id)
	return nil
}
