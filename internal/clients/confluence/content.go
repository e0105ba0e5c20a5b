package confluence

import (
	"context"
	"net/http"
	"net/url"
)

// ContentQuery filters the content collection. Empty fields are not sent.
type ContentQuery struct {
	Type     ContentType
	SpaceKey string
	Title    string
	Status   ContentStatus
	Expand   []string
	Limit    int
}

// Values renders the query parameters for the page starting at offset start.
func (q ContentQuery) Values(start int) url.Values {
	v := expandValues(q.Expand)
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.SpaceKey != "" {
		v.Set("spaceKey", q.SpaceKey)
	}
	if q.Title != "" {
		v.Set("title", q.Title)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	setPaging(v, start, q.Limit)
	return v
}

// CreateContent creates a page or blog post.
func (c *Client) CreateContent(ctx context.Context, content *Content, expand []string) (*Content, error) {
	var out Content
	if err := c.Do(ctx, http.MethodPost, "content", expandValues(expand), content, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetContentByID fetches a single content item.
func (c *Client) GetContentByID(ctx context.Context, id string, expand []string) (*Content, error) {
	var out Content
	if err := c.Do(ctx, http.MethodGet, "content/"+escapeSegment(id), expandValues(expand), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateContent replaces title and body of content.ID. content.Version.Number must be the
// current version plus one.
func (c *Client) UpdateContent(ctx context.Context, content *Content, expand []string) (*Content, error) {
	var out Content
	if err := c.Do(ctx, http.MethodPut, "content/"+escapeSegment(content.ID), expandValues(expand), content, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteContent deletes content. With status current the item is moved to the trash; with
// status trashed it is purged.
func (c *Client) DeleteContent(ctx context.Context, id string, status ContentStatus) error {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	return c.Do(ctx, http.MethodDelete, "content/"+escapeSegment(id), q, nil, nil)
}

// ListContent returns one page of the content collection.
func (c *Client) ListContent(ctx context.Context, query ContentQuery, start int) (*Page[Content], error) {
	var out Page[Content]
	if err := c.Do(ctx, http.MethodGet, "content", query.Values(start), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListChildPages returns one page of the direct child pages of id.
func (c *Client) ListChildPages(ctx context.Context, id string, expand []string, start, limit int) (*Page[Content], error) {
	q := expandValues(expand)
	setPaging(q, start, limit)
	var out Page[Content]
	if err := c.Do(ctx, http.MethodGet, "content/"+escapeSegment(id)+"/child/page", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVersions returns one page of the version history of id, newest first.
func (c *Client) ListVersions(ctx context.Context, id string, start, limit int) (*Page[Version], error) {
	q := url.Values{}
	setPaging(q, start, limit)
	var out Page[Version]
	if err := c.Do(ctx, http.MethodGet, "content/"+escapeSegment(id)+"/version", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
