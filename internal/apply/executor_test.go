package apply

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/logging"
)

// fakeServer keeps spaces and content in memory and answers the subset of the REST API
// the executor uses.
type fakeServer struct {
	mu       sync.Mutex
	spaces   map[string]*confluenceclient.Space
	contents map[string]*confluenceclient.Content
	nextID   int
	writes   []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		spaces:   map[string]*confluenceclient.Space{},
		contents: map[string]*confluenceclient.Content{},
		nextID:   1000,
	}
}

func (f *fakeServer) addSpace(key, name, description string) {
	f.spaces[key] = &confluenceclient.Space{
		ID:   int64(len(f.spaces) + 1),
		Key:  key,
		Name: name,
		Description: &confluenceclient.SpaceDescription{
			Plain: &confluenceclient.DescriptionValue{Value: description, Representation: "plain"},
		},
	}
}

func (f *fakeServer) addPage(space, title, body string) string {
	f.nextID++
	id := fmt.Sprint(f.nextID)
	f.contents[id] = &confluenceclient.Content{
		ID:      id,
		Type:    confluenceclient.ContentTypePage,
		Title:   title,
		Space:   &confluenceclient.SpaceRef{Key: space},
		Body:    &confluenceclient.Body{Storage: &confluenceclient.Storage{Value: body, Representation: "storage"}},
		Version: &confluenceclient.Version{Number: 1},
	}
	return id
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/rest/api/")
	if r.Method != http.MethodGet {
		f.writes = append(f.writes, r.Method+" "+path)
	}

	switch {
	case path == "space" && r.Method == http.MethodPost:
		var s confluenceclient.Space
		_ = json.NewDecoder(r.Body).Decode(&s)
		f.addSpace(s.Key, s.Name, "")
		writeJSON(w, http.StatusOK, f.spaces[s.Key])

	case strings.HasPrefix(path, "space/"):
		key := strings.TrimPrefix(path, "space/")
		s, ok := f.spaces[key]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "No space with key : " + key})
			return
		}
		if r.Method == http.MethodPut {
			var update confluenceclient.Space
			_ = json.NewDecoder(r.Body).Decode(&update)
			s.Name = update.Name
			if update.Description != nil {
				s.Description = update.Description
			}
		}
		writeJSON(w, http.StatusOK, s)

	case path == "content" && r.Method == http.MethodGet:
		q := r.URL.Query()
		results := []confluenceclient.Content{}
		for _, c := range f.contents {
			if c.Space.Key == q.Get("spaceKey") && c.Title == q.Get("title") {
				results = append(results, *c)
			}
		}
		writeJSON(w, http.StatusOK, confluenceclient.Page[confluenceclient.Content]{Results: results, Size: len(results)})

	case path == "content" && r.Method == http.MethodPost:
		var c confluenceclient.Content
		_ = json.NewDecoder(r.Body).Decode(&c)
		id := f.addPage(c.Space.Key, c.Title, c.StorageValue())
		f.contents[id].Ancestors = c.Ancestors
		writeJSON(w, http.StatusOK, f.contents[id])

	case strings.HasPrefix(path, "content/") && r.Method == http.MethodPut:
		id := strings.TrimPrefix(path, "content/")
		var c confluenceclient.Content
		_ = json.NewDecoder(r.Body).Decode(&c)
		current := f.contents[id]
		if c.VersionNumber() != current.VersionNumber()+1 {
			writeJSON(w, http.StatusConflict, map[string]any{"statusCode": 409, "message": "Version must be incremented on update"})
			return
		}
		current.Title = c.Title
		current.Body = c.Body
		current.Version = c.Version
		writeJSON(w, http.StatusOK, current)

	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "unexpected " + r.Method + " " + path})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestExecutor(t *testing.T, fake *fakeServer) *Executor {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := confluenceclient.NewClient(confluenceclient.Config{BaseURL: server.URL, Username: "admin", Password: "secret"})
	require.NoError(t, err)
	return NewExecutor(client, logging.New(&logging.Config{Level: logging.LevelError, Quiet: true}))
}

func fixtureDocument() *Document {
	return &Document{
		APIVersion: APIVersion,
		Kind:       KindApplyDocument,
		Metadata:   Metadata{Name: "fixtures"},
		Spaces:     []SpaceManifest{{Key: "TSTCONTENT", Name: "Test contents", Description: "fixtures"}},
		Pages: []PageManifest{
			{Space: "TSTCONTENT", Title: "Child Page", Parent: "Parent Page", Body: "<p>I am the child</p>"},
			{Space: "TSTCONTENT", Title: "Parent Page", Body: "<p>I am the parent</p>"},
		},
	}
}

func actions(result *Result) []string {
	out := make([]string, 0, len(result.Operations))
	for _, op := range result.Operations {
		out = append(out, fmt.Sprintf("%s %s %s", op.Action, op.Kind, op.Name))
	}
	return out
}

func TestPlan_EmptyServer(t *testing.T) {
	fake := newFakeServer()
	executor := newTestExecutor(t, fake)

	result, err := executor.Plan(context.Background(), fixtureDocument())
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, []string{
		"Create Space Test contents",
		"Create Page Parent Page",
		"Create Page Child Page",
	}, actions(result))
	assert.Empty(t, fake.writes, "plan must not modify the server")
}

func TestApply_CreatesEverything(t *testing.T) {
	fake := newFakeServer()
	executor := newTestExecutor(t, fake)

	result, err := executor.Apply(context.Background(), fixtureDocument())
	require.NoError(t, err)
	assert.False(t, result.DryRun)
	assert.Equal(t, map[Action]int{ActionCreate: 3}, result.Summary())

	require.Contains(t, fake.spaces, "TSTCONTENT")
	assert.Equal(t, "fixtures", fake.spaces["TSTCONTENT"].Description.Plain.Value)

	parentID := result.Operations[1].ID
	childID := result.Operations[2].ID
	require.NotEmpty(t, parentID)
	require.NotEmpty(t, childID)
	child := fake.contents[childID]
	require.Len(t, child.Ancestors, 1)
	assert.Equal(t, parentID, child.Ancestors[0].ID)
	assert.Equal(t, "<p>I am the child</p>", child.StorageValue())
}

func TestApply_Idempotent(t *testing.T) {
	fake := newFakeServer()
	executor := newTestExecutor(t, fake)

	_, err := executor.Apply(context.Background(), fixtureDocument())
	require.NoError(t, err)
	writes := len(fake.writes)

	result, err := executor.Apply(context.Background(), fixtureDocument())
	require.NoError(t, err)
	assert.Equal(t, map[Action]int{ActionNoChange: 3}, result.Summary())
	assert.Len(t, fake.writes, writes, "a second apply must not write")
}

func TestApply_UpdatesChangedResources(t *testing.T) {
	fake := newFakeServer()
	fake.addSpace("TSTCONTENT", "Old name", "fixtures")
	parentID := fake.addPage("TSTCONTENT", "Parent Page", "<p>stale</p>")
	fake.addPage("TSTCONTENT", "Child Page", "<p>I am the child</p>")
	executor := newTestExecutor(t, fake)

	plan, err := executor.Plan(context.Background(), fixtureDocument())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Update Space Test contents",
		"Update Page Parent Page",
		"NoChange Page Child Page",
	}, actions(plan))
	assert.Equal(t, "name", plan.Operations[0].Reason)

	result, err := executor.Apply(context.Background(), fixtureDocument())
	require.NoError(t, err)
	assert.Equal(t, actions(plan), actions(result))

	assert.Equal(t, "Test contents", fake.spaces["TSTCONTENT"].Name)
	assert.Equal(t, "<p>I am the parent</p>", fake.contents[parentID].StorageValue())
	assert.Equal(t, 2, fake.contents[parentID].VersionNumber())
	assert.Equal(t, 2, result.Operations[1].Version)
}

func TestApply_ParentOnServer(t *testing.T) {
	fake := newFakeServer()
	fake.addSpace("TSTCONTENT", "Test contents", "")
	parentID := fake.addPage("TSTCONTENT", "Existing Parent", "")
	executor := newTestExecutor(t, fake)

	doc := &Document{
		APIVersion: APIVersion,
		Kind:       KindApplyDocument,
		Pages:      []PageManifest{{Space: "TSTCONTENT", Title: "Orphan", Parent: "Existing Parent", Body: "x"}},
	}
	result, err := executor.Apply(context.Background(), doc)
	require.NoError(t, err)

	created := fake.contents[result.Operations[0].ID]
	require.Len(t, created.Ancestors, 1)
	assert.Equal(t, parentID, created.Ancestors[0].ID)
}

func TestApply_MissingParent(t *testing.T) {
	fake := newFakeServer()
	fake.addSpace("TSTCONTENT", "Test contents", "")
	executor := newTestExecutor(t, fake)

	doc := &Document{
		APIVersion: APIVersion,
		Kind:       KindApplyDocument,
		Pages:      []PageManifest{{Space: "TSTCONTENT", Title: "Orphan", Parent: "Nobody", Body: "x"}},
	}
	result, err := executor.Apply(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parent page "Nobody" not found`)
	assert.Empty(t, result.Operations)
}

func TestApply_InvalidDocument(t *testing.T) {
	executor := newTestExecutor(t, newFakeServer())

	_, err := executor.Apply(context.Background(), &Document{APIVersion: "v0", Kind: KindApplyDocument})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document")
}
