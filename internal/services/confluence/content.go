package confluence

import (
	"context"
	"fmt"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/logging"
	"github.com/teabranch/confluence-cli/internal/validation"
)

// DefaultUpdateExpand makes an update response carry the new body and version.
var DefaultUpdateExpand = []string{confluenceclient.ExpandBodyStorage, confluenceclient.ExpandVersion}

// CreateContentRequest describes a new page or blog post. Body is storage-format markup.
type CreateContentRequest struct {
	Type     confluenceclient.ContentType `validate:"omitempty,oneof=page blogpost"`
	Title    string                       `validate:"required,max=255"`
	SpaceKey string                       `validate:"required,spacekey,max=255"`
	Body     string
	ParentID string `validate:"omitempty,numeric"`
	Expand   []string
}

// UpdateContentRequest replaces the title and body of existing content. Version is the new
// version number: the current one plus one.
type UpdateContentRequest struct {
	ID      string                       `validate:"required,numeric"`
	Type    confluenceclient.ContentType `validate:"omitempty,oneof=page blogpost"`
	Version int                          `validate:"min=2"`
	Title   string                       `validate:"required,max=255"`
	Body    string
	Expand  []string
}

// ContentService provides high-level helpers around pages and blog posts.
type ContentService struct {
	client *confluenceclient.Client
	logger *logging.Logger
}

// NewContentService returns a ContentService bound to the provided Client.
func NewContentService(client *confluenceclient.Client) *ContentService {
	return &ContentService{
		client: client,
		logger: logging.Default(),
	}
}

// NewContentServiceWithLogger returns a ContentService with a custom logger.
func NewContentServiceWithLogger(client *confluenceclient.Client, logger *logging.Logger) *ContentService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContentService{
		client: client,
		logger: logger,
	}
}

// Create creates a page (or blog post) in req.SpaceKey, optionally under req.ParentID.
func (s *ContentService) Create(ctx context.Context, req CreateContentRequest) (*confluenceclient.Content, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = confluenceclient.ContentTypePage
	}

	content := &confluenceclient.Content{
		Type:  req.Type,
		Title: req.Title,
		Space: &confluenceclient.SpaceRef{Key: req.SpaceKey},
		Body:  storageBody(req.Body),
	}
	if req.ParentID != "" {
		content.Ancestors = []confluenceclient.ContentRef{{ID: req.ParentID}}
	}

	s.logger.Debug("Creating content", "space_key", req.SpaceKey, "title", req.Title, "parent_id", req.ParentID)

	created, err := s.client.CreateContent(ctx, content, req.Expand)
	if err != nil {
		s.logger.Error("Failed to create content", "space_key", req.SpaceKey, "title", req.Title, "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Created content successfully", "content_id", created.ID, "space_key", req.SpaceKey)
	return created, nil
}

// GetByID fetches a single content item.
func (s *ContentService) GetByID(ctx context.Context, id string, expand ...string) (*confluenceclient.Content, error) {
	if err := validation.ValidateContentID(id); err != nil {
		return nil, err
	}

	s.logger.Debug("Getting content", "content_id", id)

	content, err := s.client.GetContentByID(ctx, id, expand)
	if err != nil {
		s.logger.Error("Failed to get content", "content_id", id, "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Got content successfully", "content_id", id)
	return content, nil
}

// Update writes a new version of existing content.
func (s *ContentService) Update(ctx context.Context, req UpdateContentRequest) (*confluenceclient.Content, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = confluenceclient.ContentTypePage
	}
	if len(req.Expand) == 0 {
		req.Expand = DefaultUpdateExpand
	}

	content := &confluenceclient.Content{
		ID:      req.ID,
		Type:    req.Type,
		Title:   req.Title,
		Body:    storageBody(req.Body),
		Version: &confluenceclient.Version{Number: req.Version},
	}

	s.logger.Debug("Updating content", "content_id", req.ID, "version", req.Version)

	updated, err := s.client.UpdateContent(ctx, content, req.Expand)
	if err != nil {
		s.logger.Error("Failed to update content", "content_id", req.ID, "version", req.Version, "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Updated content successfully", "content_id", req.ID, "version", updated.VersionNumber())
	return updated, nil
}

// NextVersion returns the version number an update of id must carry, along with the current
// content type, which an update must repeat.
func (s *ContentService) NextVersion(ctx context.Context, id string) (int, confluenceclient.ContentType, error) {
	current, err := s.GetByID(ctx, id, confluenceclient.ExpandVersion)
	if err != nil {
		return 0, "", err
	}
	return current.VersionNumber() + 1, current.Type, nil
}

// Delete removes content. An empty status lets the server decide (trash for current content).
func (s *ContentService) Delete(ctx context.Context, id string, status confluenceclient.ContentStatus) error {
	if err := validation.ValidateContentID(id); err != nil {
		return err
	}

	s.logger.Debug("Deleting content", "content_id", id, "status", string(status))

	if err := s.client.DeleteContent(ctx, id, status); err != nil {
		s.logger.Error("Failed to delete content", "content_id", id, "error", err.Error())
		return err
	}

	s.logger.Debug("Deleted content successfully", "content_id", id)
	return nil
}

// GetChildPages returns every direct child page of parentID.
func (s *ContentService) GetChildPages(ctx context.Context, parentID string, expand ...string) ([]confluenceclient.Content, error) {
	if err := validation.ValidateContentID(parentID); err != nil {
		return nil, err
	}

	s.logger.Debug("Listing child pages", "content_id", parentID)

	out, err := collect(ctx, func(ctx context.Context, start int) (*confluenceclient.Page[confluenceclient.Content], error) {
		return s.client.ListChildPages(ctx, parentID, expand, start, 0)
	})
	if err != nil {
		s.logger.Error("Failed to list child pages", "content_id", parentID, "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Listed child pages successfully", "content_id", parentID, "count", len(out))
	return out, nil
}

// Get returns every content item matching query. No match is an empty slice, not an error.
func (s *ContentService) Get(ctx context.Context, query confluenceclient.ContentQuery) ([]confluenceclient.Content, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	s.logger.Debug("Querying content", "space_key", query.SpaceKey, "type", string(query.Type), "title", query.Title)

	out, err := collect(ctx, s.fetchContent(query))
	if err != nil {
		s.logger.Error("Failed to query content", "space_key", query.SpaceKey, "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Queried content successfully", "space_key", query.SpaceKey, "count", len(out))
	return out, nil
}

// ListPage returns the single page of matches starting at offset start.
func (s *ContentService) ListPage(ctx context.Context, query confluenceclient.ContentQuery, start int) (*confluenceclient.Page[confluenceclient.Content], error) {
	if start < 0 {
		return nil, fmt.Errorf("start must be >= 0")
	}
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	s.logger.Debug("Listing content page", "space_key", query.SpaceKey, "start", start, "limit", query.Limit)

	page, err := s.client.ListContent(ctx, query, start)
	if err != nil {
		s.logger.Error("Failed to list content page", "space_key", query.SpaceKey, "error", err.Error())
		return nil, err
	}
	return page, nil
}

// Walk calls fn for each content item matching query, one page at a time. An error from fn
// stops the walk and is returned.
func (s *ContentService) Walk(ctx context.Context, query confluenceclient.ContentQuery, fn func(confluenceclient.Content) error) error {
	if fn == nil {
		return fmt.Errorf("walk function is required")
	}
	if err := validateQuery(query); err != nil {
		return err
	}
	return each(ctx, s.fetchContent(query), fn)
}

// Versions returns the version history of id, newest first.
func (s *ContentService) Versions(ctx context.Context, id string) ([]confluenceclient.Version, error) {
	if err := validation.ValidateContentID(id); err != nil {
		return nil, err
	}

	s.logger.Debug("Listing versions", "content_id", id)

	out, err := collect(ctx, func(ctx context.Context, start int) (*confluenceclient.Page[confluenceclient.Version], error) {
		return s.client.ListVersions(ctx, id, start, 0)
	})
	if err != nil {
		s.logger.Error("Failed to list versions", "content_id", id, "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Listed versions successfully", "content_id", id, "count", len(out))
	return out, nil
}

// Prune deletes every item matching query except the space homepage and returns how many
// were removed. Matches are collected before deleting so removals do not shift the paging.
func (s *ContentService) Prune(ctx context.Context, query confluenceclient.ContentQuery, status confluenceclient.ContentStatus) (int, error) {
	if query.SpaceKey == "" {
		return 0, fmt.Errorf("space key is required")
	}

	op := s.logger.StartOperation("prune", map[string]any{"space_key": query.SpaceKey})

	space, err := s.client.GetSpace(ctx, query.SpaceKey, []string{confluenceclient.ExpandHomepage})
	if err != nil {
		op.Fail(err)
		return 0, err
	}
	homeID := ""
	if space.Homepage != nil {
		homeID = space.Homepage.ID
	}

	matches, err := s.Get(ctx, query)
	if err != nil {
		op.Fail(err)
		return 0, err
	}

	deleted := 0
	for _, c := range matches {
		if c.ID == homeID {
			continue
		}
		if err := s.Delete(ctx, c.ID, status); err != nil {
			op.Fail(err, "deleted", deleted)
			return deleted, fmt.Errorf("delete %s (%q): %w", c.ID, c.Title, err)
		}
		deleted++
	}

	op.Complete("deleted", deleted, "kept_homepage", homeID)
	return deleted, nil
}

func (s *ContentService) fetchContent(query confluenceclient.ContentQuery) pageFetcher[confluenceclient.Content] {
	return func(ctx context.Context, start int) (*confluenceclient.Page[confluenceclient.Content], error) {
		return s.client.ListContent(ctx, query, start)
	}
}

func validateQuery(query confluenceclient.ContentQuery) error {
	if query.Limit < 0 {
		return fmt.Errorf("limit must be >= 0")
	}
	if query.SpaceKey != "" {
		return validation.ValidateSpaceKey(query.SpaceKey)
	}
	return nil
}

// validateRequest runs the struct tags and maps length violations onto ErrValueTooLong.
func validateRequest(req any) error {
	err := validation.Struct(req)
	if err == nil {
		return nil
	}
	if validation.IsTooLong(err) {
		return fmt.Errorf("%w: %v", confluenceclient.ErrValueTooLong, err)
	}
	return err
}

func storageBody(value string) *confluenceclient.Body {
	return &confluenceclient.Body{
		Storage: &confluenceclient.Storage{
			Value:          value,
			Representation: confluenceclient.RepresentationStorage,
		},
	}
}
