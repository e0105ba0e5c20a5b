//go:build integration
// +build integration

package content

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	confluenceservice "github.com/teabranch/confluence-cli/internal/services/confluence"
	"github.com/teabranch/confluence-cli/test/integration/liveenv"
)

const (
	testSpaceKey  = "TSTCONTENT"
	testSpaceName = "Test contents"
	missingSpace  = "N0NE5UCHSPACE"
)

var (
	client   *confluenceclient.Client
	contents *confluenceservice.ContentService
)

// TestMain creates the shared space once and deletes it after every scenario has run.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() || !liveenv.Configured() {
		os.Exit(m.Run())
	}

	var err error
	client, err = liveenv.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create Confluence client: %v\n", err)
		os.Exit(1)
	}
	contents = confluenceservice.NewContentService(client)
	spaces := confluenceservice.NewSpacesService(client)

	ctx, cancel := context.WithTimeout(context.Background(), liveenv.Timeout)
	_, err = spaces.Create(ctx, testSpaceKey, testSpaceName)
	cancel()
	if err != nil {
		// A previous aborted run may have left the space behind.
		fmt.Fprintf(os.Stderr, "create space %s: %v (reusing it)\n", testSpaceKey, err)
	}

	code := m.Run()

	ctx, cancel = context.WithTimeout(context.Background(), liveenv.Timeout)
	if err := spaces.Delete(ctx, testSpaceKey); err != nil {
		fmt.Fprintf(os.Stderr, "delete space %s: %v\n", testSpaceKey, err)
	}
	cancel()

	os.Exit(code)
}

func setup(t *testing.T) context.Context {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if contents == nil {
		t.Skip("CONFLUENCE_URL or PASSWORD not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), liveenv.Timeout)
	t.Cleanup(cancel)
	return ctx
}

// uniqueTitle keeps reruns against a dirty space from colliding.
func uniqueTitle(base string) string {
	return base + " " + uuid.NewString()[:8]
}

func createPage(t *testing.T, ctx context.Context, req confluenceservice.CreateContentRequest) *confluenceclient.Content {
	t.Helper()
	if req.SpaceKey == "" {
		req.SpaceKey = testSpaceKey
	}
	page, err := contents.Create(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, page.ID)

	t.Cleanup(func() {
		err := contents.Delete(context.Background(), page.ID, confluenceclient.ContentStatusCurrent)
		if err != nil && !confluenceclient.IsNotFound(err) {
			t.Logf("cleanup: failed to delete content %s: %v", page.ID, err)
		}
	})
	return page
}

func TestCreateAndReadPage_Integration(t *testing.T) {
	ctx := setup(t)

	title := uniqueTitle("full test page")
	body := "this is a full piece of test content"
	created := createPage(t, ctx, confluenceservice.CreateContentRequest{Title: title, Body: body})

	got, err := contents.GetByID(ctx, created.ID, confluenceclient.ExpandBodyStorage)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, body, got.StorageValue())
}

func TestParentAndChildPages_Integration(t *testing.T) {
	ctx := setup(t)

	parent := createPage(t, ctx, confluenceservice.CreateContentRequest{
		Title: uniqueTitle("Parent Page"),
		Body:  "I am the parent",
	})
	child := createPage(t, ctx, confluenceservice.CreateContentRequest{
		Title:    uniqueTitle("Child Page"),
		Body:     "I am the child",
		ParentID: parent.ID,
	})

	children, err := contents.GetChildPages(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)
	assert.Equal(t, child.Title, children[0].Title)
}

func TestUpdatePage_Integration(t *testing.T) {
	ctx := setup(t)

	created := createPage(t, ctx, confluenceservice.CreateContentRequest{
		Title: uniqueTitle("original title"),
		Body:  "original body",
	})

	current, err := contents.GetByID(ctx, created.ID, confluenceclient.ExpandVersion)
	require.NoError(t, err)
	require.Equal(t, 1, current.VersionNumber())

	newTitle := uniqueTitle("updated title")
	newBody := "updated body"
	updated, err := contents.Update(ctx, confluenceservice.UpdateContentRequest{
		ID:      created.ID,
		Version: current.VersionNumber() + 1,
		Title:   newTitle,
		Body:    newBody,
	})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, newBody, updated.StorageValue())
	assert.Equal(t, 2, updated.VersionNumber())

	reread, err := contents.GetByID(ctx, created.ID, confluenceclient.ExpandBodyStorage, confluenceclient.ExpandVersion)
	require.NoError(t, err)
	assert.Equal(t, newTitle, reread.Title)
	assert.Equal(t, newBody, reread.StorageValue())
	assert.Equal(t, 2, reread.VersionNumber())
}

func TestVersionHistory_Integration(t *testing.T) {
	ctx := setup(t)

	created := createPage(t, ctx, confluenceservice.CreateContentRequest{
		Title: uniqueTitle("versioned page"),
		Body:  "v1",
	})

	next, contentType, err := contents.NextVersion(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 2, next)
	require.Equal(t, confluenceclient.ContentTypePage, contentType)

	_, err = contents.Update(ctx, confluenceservice.UpdateContentRequest{
		ID:      created.ID,
		Version: next,
		Title:   created.Title,
		Body:    "v2",
	})
	require.NoError(t, err)

	versions, err := contents.Versions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	numbers := []int{versions[0].Number, versions[1].Number}
	assert.ElementsMatch(t, []int{1, 2}, numbers)
}

func TestUpdateStaleVersion_Integration(t *testing.T) {
	ctx := setup(t)

	created := createPage(t, ctx, confluenceservice.CreateContentRequest{
		Title: uniqueTitle("stale version page"),
		Body:  "v1",
	})

	// Version 3 skips version 2.
	_, err := contents.Update(ctx, confluenceservice.UpdateContentRequest{
		ID:      created.ID,
		Version: 3,
		Title:   created.Title,
		Body:    "v3",
	})
	require.Error(t, err)

	_, ok := confluenceclient.AsError(err)
	assert.True(t, ok, "expected *confluence.Error, got %T", err)
}

func TestCreateInNonexistentSpace_Integration(t *testing.T) {
	ctx := setup(t)

	_, err := contents.Create(ctx, confluenceservice.CreateContentRequest{
		Title:    "Full test page",
		Body:     "this is a full piece of test content",
		SpaceKey: missingSpace,
	})
	require.Error(t, err)

	var apiErr *confluenceclient.Error
	require.True(t, errors.As(err, &apiErr), "expected *confluence.Error, got %T", err)
	assert.GreaterOrEqual(t, apiErr.StatusCode, 400)
}

func TestQueryNoResults_Integration(t *testing.T) {
	ctx := setup(t)

	results, err := contents.Get(ctx, confluenceclient.ContentQuery{
		Type:     confluenceclient.ContentTypePage,
		SpaceKey: testSpaceKey,
		Title:    "nothing to be found",
	})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestPagination_Integration(t *testing.T) {
	ctx := setup(t)

	const pageCount = 10
	for i := 0; i < pageCount; i++ {
		_, err := contents.Create(ctx, confluenceservice.CreateContentRequest{
			Title:    uniqueTitle(fmt.Sprintf("page %d", i)),
			Body:     fmt.Sprintf("content for page %d", i),
			SpaceKey: testSpaceKey,
		})
		require.NoError(t, err)
	}

	query := confluenceclient.ContentQuery{
		Type:     confluenceclient.ContentTypePage,
		SpaceKey: testSpaceKey,
		Limit:    3,
	}
	t.Cleanup(func() {
		if _, err := contents.Prune(context.Background(), query, confluenceclient.ContentStatusCurrent); err != nil {
			t.Logf("cleanup: prune %s: %v", testSpaceKey, err)
		}
	})

	// The ten pages plus the space homepage, fetched three at a time.
	all, err := contents.Get(ctx, query)
	require.NoError(t, err)
	assert.Len(t, all, pageCount+1)

	seen := map[string]bool{}
	for _, c := range all {
		assert.False(t, seen[c.ID], "content %s returned twice", c.ID)
		seen[c.ID] = true
	}

	first, err := contents.ListPage(ctx, query, 0)
	require.NoError(t, err)
	assert.Len(t, first.Results, 3)
	assert.True(t, first.HasNext())

	deleted, err := contents.Prune(ctx, query, confluenceclient.ContentStatusCurrent)
	require.NoError(t, err)
	assert.Equal(t, pageCount, deleted)

	remaining, err := contents.Get(ctx, query)
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "only the homepage should remain")
}

func TestDuplicateTitle_Integration(t *testing.T) {
	ctx := setup(t)

	title := uniqueTitle("Duplicate Page")
	createPage(t, ctx, confluenceservice.CreateContentRequest{Title: title, Body: "first"})

	dup, err := contents.Create(ctx, confluenceservice.CreateContentRequest{
		Title:    title,
		Body:     "second",
		SpaceKey: testSpaceKey,
	})
	if dup != nil {
		_ = contents.Delete(context.Background(), dup.ID, confluenceclient.ContentStatusCurrent)
	}
	require.Error(t, err)

	var apiErr *confluenceclient.Error
	require.True(t, errors.As(err, &apiErr), "expected *confluence.Error, got %T", err)
	assert.True(t, confluenceclient.IsBadRequest(err))
}

func TestTitleTooLong_Integration(t *testing.T) {
	ctx := setup(t)

	_, err := contents.Create(ctx, confluenceservice.CreateContentRequest{
		Title:    strings.Repeat("x", 256),
		Body:     "too long",
		SpaceKey: testSpaceKey,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, confluenceclient.ErrValueTooLong)
}

func TestWalk_Integration(t *testing.T) {
	ctx := setup(t)

	page := createPage(t, ctx, confluenceservice.CreateContentRequest{Title: uniqueTitle("walked page"), Body: "walk"})

	found := false
	err := contents.Walk(ctx, confluenceclient.ContentQuery{
		Type:     confluenceclient.ContentTypePage,
		SpaceKey: testSpaceKey,
		Limit:    1,
	}, func(c confluenceclient.Content) error {
		if c.ID == page.ID {
			found = true
		}
		return nil
	})
	require.NoError(t, err)
	assert.True(t, found, "walk should visit page %s", page.ID)
}
