package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// Collection is the typed gateway for one REST collection. E is the
// entity, C its create input and U its partial update input.
type Collection[E, C, U any] struct {
	client *Client
	path   string
}

// NewCollection binds a collection at path (e.g. "/products").
func NewCollection[E, C, U any](client *Client, path string) *Collection[E, C, U] {
	return &Collection[E, C, U]{client: client, path: path}
}

// List returns the entities matching query.
func (c *Collection[E, C, U]) List(ctx context.Context, query url.Values) ([]E, error) {
	var out []E
	if err := c.client.Do(ctx, http.MethodGet, c.path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create persists a new entity and returns the stored representation.
func (c *Collection[E, C, U]) Create(ctx context.Context, input C) (E, error) {
	var out E
	err := c.client.Do(ctx, http.MethodPost, c.path, nil, input, &out)
	return out, err
}

// Update applies a partial update and returns the stored representation.
func (c *Collection[E, C, U]) Update(ctx context.Context, id string, input U) (E, error) {
	var out E
	err := c.client.Do(ctx, http.MethodPatch, c.itemPath(id), nil, input, &out)
	return out, err
}

// SoftDelete marks the entity inactive. The row stays retrievable with
// an "all" query.
func (c *Collection[E, C, U]) SoftDelete(ctx context.Context, id string) error {
	return c.client.Do(ctx, http.MethodDelete, c.itemPath(id), nil, nil, nil)
}

// HardDelete removes the entity permanently.
func (c *Collection[E, C, U]) HardDelete(ctx context.Context, id string) error {
	return c.client.Do(ctx, http.MethodDelete, c.itemPath(id), nil, nil, nil)
}

func (c *Collection[E, C, U]) itemPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}

// AllQuery asks for inactive rows as well as active ones.
func AllQuery() url.Values {
	return url.Values{"all": []string{"1"}}
}
