//go:build integration
// +build integration

package space

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	confluenceservice "github.com/teabranch/confluence-cli/internal/services/confluence"
	"github.com/teabranch/confluence-cli/test/integration/liveenv"
)

const (
	testSpaceKey  = "TSTSPACE"
	testSpaceName = "Heroes Test"
	updatedName   = "Update Test"
)

// TestSpaceLifecycle_Integration runs create, get, update and delete in order on one space.
// Each step depends on the previous one.
func TestSpaceLifecycle_Integration(t *testing.T) {
	client := liveenv.Client(t)
	service := confluenceservice.NewSpacesService(client)

	ctx, cancel := context.WithTimeout(context.Background(), liveenv.Timeout)
	defer cancel()

	deleted := false
	t.Cleanup(func() {
		if deleted {
			return
		}
		if err := service.Delete(context.Background(), testSpaceKey); err != nil && !confluenceclient.IsNotFound(err) {
			t.Logf("cleanup: failed to delete space %s: %v", testSpaceKey, err)
		}
	})

	t.Run("Create", func(t *testing.T) {
		space, err := service.Create(ctx, testSpaceKey, testSpaceName)
		require.NoError(t, err)
		assert.Equal(t, testSpaceKey, space.Key)
		assert.Equal(t, testSpaceName, space.Name)
	})

	t.Run("Get", func(t *testing.T) {
		space, err := service.Get(ctx, testSpaceKey)
		require.NoError(t, err)
		assert.Equal(t, testSpaceKey, space.Key)
	})

	t.Run("Update", func(t *testing.T) {
		space, err := service.Update(ctx, testSpaceKey, updatedName, nil)
		require.NoError(t, err)
		assert.Equal(t, updatedName, space.Name)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, service.Delete(ctx, testSpaceKey))
		deleted = true
	})
}

func TestGetNonexistentSpace_Integration(t *testing.T) {
	client := liveenv.Client(t)
	service := confluenceservice.NewSpacesService(client)

	ctx, cancel := context.WithTimeout(context.Background(), liveenv.Timeout)
	defer cancel()

	_, err := service.Get(ctx, "N0NE5UCHSPACE")
	require.Error(t, err)

	apiErr, ok := confluenceclient.AsError(err)
	require.True(t, ok, "expected *confluence.Error, got %T", err)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.True(t, confluenceclient.IsNotFound(err))
}

func TestListSpaces_Integration(t *testing.T) {
	client := liveenv.Client(t)
	service := confluenceservice.NewSpacesService(client)

	ctx, cancel := context.WithTimeout(context.Background(), liveenv.Timeout)
	defer cancel()

	// A small page size forces several requests on servers with a handful of spaces.
	all, err := service.List(ctx, 2)
	require.NoError(t, err)

	first, err := service.ListPage(ctx, 0, 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(first.Results), 2)
	assert.GreaterOrEqual(t, len(all), len(first.Results))
	t.Logf("found %d spaces", len(all))
}
