package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jortega/stocksync/internal/domain"
)

func (c *Client) ListItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if err := c.do(ctx, http.MethodGet, "/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CreateItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error) {
	item := &domain.Item{}
	if err := c.do(ctx, http.MethodPost, "/items", in, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Client) UpdateItem(ctx context.Context, id string, in domain.ItemInput) (*domain.Item, error) {
	item := &domain.Item{}
	if err := c.do(ctx, http.MethodPut, "/items/"+url.PathEscape(id), in, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item. When purgeTransactions is set the server also
// drops the item's transaction history; otherwise the audit records remain in
// the remote store and are merely hidden from the client's views.
func (c *Client) DeleteItem(ctx context.Context, id string, purgeTransactions bool) error {
	path := "/items/" + url.PathEscape(id)
	if purgeTransactions {
		path += "?purgeTransactions=true"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListLocations(ctx context.Context) ([]domain.Location, error) {
	var locations []domain.Location
	if err := c.do(ctx, http.MethodGet, "/locations", nil, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

func (c *Client) CreateLocation(ctx context.Context, in domain.LocationInput) (*domain.Location, error) {
	loc := &domain.Location{}
	if err := c.do(ctx, http.MethodPost, "/locations", in, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func (c *Client) UpdateLocation(ctx context.Context, id string, in domain.LocationInput) (*domain.Location, error) {
	loc := &domain.Location{}
	if err := c.do(ctx, http.MethodPut, "/locations/"+url.PathEscape(id), in, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func (c *Client) DeleteLocation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/locations/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (c *Client) CreateTransaction(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	tr := &domain.Transaction{}
	if err := c.do(ctx, http.MethodPost, "/transactions", in, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

type renameCategoryRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

func (c *Client) RenameCategory(ctx context.Context, oldName, newName string) error {
	return c.do(ctx, http.MethodPost, "/categories/rename", renameCategoryRequest{OldName: oldName, NewName: newName}, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(name), nil, nil)
}
