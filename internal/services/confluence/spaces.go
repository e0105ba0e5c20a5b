// Package confluence contains higher-level helpers over the Confluence REST client: input
// validation, pagination and logging.
package confluence

import (
	"context"
	"fmt"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/logging"
	"github.com/teabranch/confluence-cli/internal/validation"
)

// SpacesService provides high-level helpers around the space resource.
type SpacesService struct {
	client *confluenceclient.Client
	logger *logging.Logger
}

// NewSpacesService returns a SpacesService bound to the provided Client.
func NewSpacesService(client *confluenceclient.Client) *SpacesService {
	return &SpacesService{
		client: client,
		logger: logging.Default(),
	}
}

// NewSpacesServiceWithLogger returns a SpacesService with a custom logger.
func NewSpacesServiceWithLogger(client *confluenceclient.Client, logger *logging.Logger) *SpacesService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SpacesService{
		client: client,
		logger: logger,
	}
}

// Create creates a global space.
func (s *SpacesService) Create(ctx context.Context, key, name string) (*confluenceclient.Space, error) {
	if err := validation.ValidateSpaceKey(key); err != nil {
		return nil, err
	}
	if err := validateSpaceName(name); err != nil {
		return nil, err
	}

	s.logger.Debug("Creating space", "space_key", key, "name", name)

	space, err := s.client.CreateSpace(ctx, &confluenceclient.Space{Key: key, Name: name})
	if err != nil {
		s.logger.Error("Failed to create space", "space_key", key, "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Created space successfully", "space_key", space.Key, "space_id", space.ID)
	return space, nil
}

// Get fetches a space by key.
func (s *SpacesService) Get(ctx context.Context, key string, expand ...string) (*confluenceclient.Space, error) {
	if err := validation.ValidateSpaceKeyReference(key); err != nil {
		return nil, err
	}

	s.logger.Debug("Getting space", "space_key", key)

	space, err := s.client.GetSpace(ctx, key, expand)
	if err != nil {
		s.logger.Error("Failed to get space", "space_key", key, "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Got space successfully", "space_key", key)
	return space, nil
}

// Update renames a space. A nil description leaves the current one untouched.
func (s *SpacesService) Update(ctx context.Context, key, name string, description *string) (*confluenceclient.Space, error) {
	if err := validation.ValidateSpaceKeyReference(key); err != nil {
		return nil, err
	}
	if err := validateSpaceName(name); err != nil {
		return nil, err
	}

	payload := &confluenceclient.Space{Name: name}
	if description != nil {
		payload.Description = &confluenceclient.SpaceDescription{
			Plain: &confluenceclient.DescriptionValue{
				Value:          *description,
				Representation: confluenceclient.RepresentationPlain,
			},
		}
	}

	s.logger.Debug("Updating space", "space_key", key, "name", name)

	space, err := s.client.UpdateSpace(ctx, key, payload)
	if err != nil {
		s.logger.Error("Failed to update space", "space_key", key, "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Updated space successfully", "space_key", key)
	return space, nil
}

// Delete removes a space and all of its content.
func (s *SpacesService) Delete(ctx context.Context, key string) error {
	if err := validation.ValidateSpaceKeyReference(key); err != nil {
		return err
	}

	s.logger.Debug("Deleting space", "space_key", key)

	if err := s.client.DeleteSpace(ctx, key); err != nil {
		s.logger.Error("Failed to delete space", "space_key", key, "error", err.Error())
		return err
	}

	s.logger.Debug("Deleted space successfully", "space_key", key)
	return nil
}

// List returns every space visible to the account, following pagination. limit is the page
// size; zero uses the server default.
func (s *SpacesService) List(ctx context.Context, limit int) ([]confluenceclient.Space, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0")
	}

	s.logger.Debug("Listing spaces", "limit", limit)

	out, err := collect(ctx, func(ctx context.Context, start int) (*confluenceclient.Page[confluenceclient.Space], error) {
		return s.client.ListSpaces(ctx, start, limit, nil)
	})
	if err != nil {
		s.logger.Error("Failed to list spaces", "error", err.Error())
		return nil, err
	}

	s.logger.Debug("Listed spaces successfully", "count", len(out))
	return out, nil
}

// ListPage returns the single page of spaces starting at offset start.
func (s *SpacesService) ListPage(ctx context.Context, start, limit int) (*confluenceclient.Page[confluenceclient.Space], error) {
	if start < 0 || limit < 0 {
		return nil, fmt.Errorf("start and limit must be >= 0")
	}

	s.logger.Debug("Listing spaces page", "start", start, "limit", limit)

	page, err := s.client.ListSpaces(ctx, start, limit, nil)
	if err != nil {
		s.logger.Error("Failed to list spaces page", "error", err.Error())
		return nil, err
	}
	return page, nil
}

func validateSpaceName(name string) error {
	if err := validation.ValidateRequired(name, "space name"); err != nil {
		return err
	}
	if err := validation.ValidateMaxLength(name, "space name", validation.MaxSpaceNameLength); err != nil {
		return fmt.Errorf("%w: %v", confluenceclient.ErrValueTooLong, err)
	}
	return nil
}
