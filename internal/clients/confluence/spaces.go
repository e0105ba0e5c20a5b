package confluence

import (
	"context"
	"net/http"
)

// CreateSpace creates a global space. Only key, name and description are sent.
func (c *Client) CreateSpace(ctx context.Context, space *Space) (*Space, error) {
	payload := &Space{Key: space.Key, Name: space.Name, Description: space.Description}
	var out Space
	if err := c.Do(ctx, http.MethodPost, "space", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSpace fetches a space by key.
func (c *Client) GetSpace(ctx context.Context, key string, expand []string) (*Space, error) {
	var out Space
	if err := c.Do(ctx, http.MethodGet, "space/"+escapeSegment(key), expandValues(expand), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSpace updates the name and, when set, the description of the space identified by key.
func (c *Client) UpdateSpace(ctx context.Context, key string, space *Space) (*Space, error) {
	payload := &Space{Key: key, Name: space.Name, Description: space.Description}
	var out Space
	if err := c.Do(ctx, http.MethodPut, "space/"+escapeSegment(key), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSpace removes a space and everything in it. Newer servers answer 202 and finish the
// removal as a background task.
func (c *Client) DeleteSpace(ctx context.Context, key string) error {
	return c.Do(ctx, http.MethodDelete, "space/"+escapeSegment(key), nil, nil, nil)
}

// ListSpaces returns one page of spaces starting at offset start.
func (c *Client) ListSpaces(ctx context.Context, start, limit int, expand []string) (*Page[Space], error) {
	q := expandValues(expand)
	setPaging(q, start, limit)
	var out Page[Space]
	if err := c.Do(ctx, http.MethodGet, "space", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
