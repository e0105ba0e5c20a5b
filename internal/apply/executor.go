package apply

import (
	"context"
	"fmt"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
	"github.com/teabranch/confluence-cli/internal/logging"
	confluenceservice "github.com/teabranch/confluence-cli/internal/services/confluence"
)

// Action is what the executor does to one resource.
type Action string

const (
	ActionCreate   Action = "Create"
	ActionUpdate   Action = "Update"
	ActionNoChange Action = "NoChange"
)

// Resource kinds reported in a Result.
const (
	KindSpace = "Space"
	KindPage  = "Page"
)

// Operation records the decision (and, when applied, the outcome) for one resource.
type Operation struct {
	Kind    string `json:"kind" yaml:"kind"`
	Action  Action `json:"action" yaml:"action"`
	Space   string `json:"space" yaml:"space"`
	Name    string `json:"name" yaml:"name"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Version int    `json:"version,omitempty" yaml:"version,omitempty"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Result is the ordered list of operations for a document.
type Result struct {
	DryRun     bool        `json:"dryRun" yaml:"dryRun"`
	Operations []Operation `json:"operations" yaml:"operations"`
}

// Summary counts operations by action.
func (r *Result) Summary() map[Action]int {
	out := map[Action]int{}
	for _, op := range r.Operations {
		out[op.Action]++
	}
	return out
}

// Executor reconciles documents against the server. Spaces go first, then pages with
// parents ahead of children.
type Executor struct {
	spaces   *confluenceservice.SpacesService
	contents *confluenceservice.ContentService
	logger   *logging.Logger
}

// NewExecutor creates an executor over client.
func NewExecutor(client *confluenceclient.Client, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Executor{
		spaces:   confluenceservice.NewSpacesServiceWithLogger(client, logger),
		contents: confluenceservice.NewContentServiceWithLogger(client, logger),
		logger:   logger,
	}
}

// Plan reports what Apply would do without changing anything.
func (e *Executor) Plan(ctx context.Context, doc *Document) (*Result, error) {
	return e.run(ctx, doc, true)
}

// Apply creates and updates resources so the server matches doc. It stops at the first
// failure; the result holds the operations completed so far.
func (e *Executor) Apply(ctx context.Context, doc *Document) (*Result, error) {
	return e.run(ctx, doc, false)
}

func (e *Executor) run(ctx context.Context, doc *Document, dryRun bool) (*Result, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	op := e.logger.StartOperation("apply", map[string]any{
		"document": doc.Metadata.Name,
		"dry_run":  dryRun,
	})

	result := &Result{DryRun: dryRun, Operations: []Operation{}}
	// Spaces that do not exist yet: their pages cannot be looked up.
	pending := map[string]bool{}

	for _, s := range doc.Spaces {
		res, err := e.reconcileSpace(ctx, s, dryRun)
		if err != nil {
			op.Fail(err, "completed", len(result.Operations))
			return result, fmt.Errorf("space %s: %w", s.Key, err)
		}
		if dryRun && res.Action == ActionCreate {
			pending[s.Key] = true
		}
		result.Operations = append(result.Operations, res)
	}

	pages, err := orderPages(doc.Pages)
	if err != nil {
		op.Fail(err)
		return result, err
	}

	ids := map[string]string{}
	for _, p := range pages {
		res, err := e.reconcilePage(ctx, p, ids, pending[p.Space], dryRun)
		if err != nil {
			op.Fail(err, "completed", len(result.Operations))
			return result, fmt.Errorf("page %q in space %s: %w", p.Title, p.Space, err)
		}
		ids[p.key()] = res.ID
		result.Operations = append(result.Operations, res)
	}

	summary := result.Summary()
	op.Complete(
		"created", summary[ActionCreate],
		"updated", summary[ActionUpdate],
		"unchanged", summary[ActionNoChange])
	return result, nil
}

func (e *Executor) reconcileSpace(ctx context.Context, s SpaceManifest, dryRun bool) (Operation, error) {
	res := Operation{Kind: KindSpace, Space: s.Key, Name: s.Name}

	current, err := e.spaces.Get(ctx, s.Key, confluenceclient.ExpandDescription)
	switch {
	case confluenceclient.IsNotFound(err):
		res.Action = ActionCreate
		res.Reason = "space does not exist"
		if dryRun {
			return res, nil
		}
		created, err := e.spaces.Create(ctx, s.Key, s.Name)
		if err != nil {
			return res, err
		}
		res.ID = fmt.Sprint(created.ID)
		if s.Description != "" {
			desc := s.Description
			if _, err := e.spaces.Update(ctx, s.Key, s.Name, &desc); err != nil {
				return res, err
			}
		}
		return res, nil
	case err != nil:
		return res, err
	}

	res.ID = fmt.Sprint(current.ID)
	currentDesc := ""
	if current.Description != nil && current.Description.Plain != nil {
		currentDesc = current.Description.Plain.Value
	}
	nameChanged := current.Name != s.Name
	descChanged := s.Description != "" && currentDesc != s.Description
	if !nameChanged && !descChanged {
		res.Action = ActionNoChange
		return res, nil
	}

	res.Action = ActionUpdate
	res.Reason = changeReason(nameChanged, "name", descChanged, "description")
	if dryRun {
		return res, nil
	}
	var desc *string
	if descChanged {
		desc = &s.Description
	}
	_, err = e.spaces.Update(ctx, s.Key, s.Name, desc)
	return res, err
}

func (e *Executor) reconcilePage(ctx context.Context, p PageManifest, ids map[string]string, spacePending, dryRun bool) (Operation, error) {
	res := Operation{Kind: KindPage, Space: p.Space, Name: p.Title}

	var current *confluenceclient.Content
	if !spacePending {
		found, err := e.findPage(ctx, p.Space, p.Title, p.contentType())
		if err != nil {
			return res, err
		}
		current = found
	}

	if current == nil {
		res.Action = ActionCreate
		res.Reason = "page does not exist"
		if dryRun {
			return res, nil
		}
		parentID, err := e.parentID(ctx, p, ids)
		if err != nil {
			return res, err
		}
		created, err := e.contents.Create(ctx, confluenceservice.CreateContentRequest{
			Type:     p.contentType(),
			Title:    p.Title,
			SpaceKey: p.Space,
			Body:     p.Body,
			ParentID: parentID,
		})
		if err != nil {
			return res, err
		}
		res.ID = created.ID
		res.Version = 1
		return res, nil
	}

	res.ID = current.ID
	res.Version = current.VersionNumber()
	if current.StorageValue() == p.Body {
		res.Action = ActionNoChange
		return res, nil
	}

	res.Action = ActionUpdate
	res.Reason = "body"
	if dryRun {
		return res, nil
	}
	updated, err := e.contents.Update(ctx, confluenceservice.UpdateContentRequest{
		ID:      current.ID,
		Type:    p.contentType(),
		Version: current.VersionNumber() + 1,
		Title:   p.Title,
		Body:    p.Body,
	})
	if err != nil {
		return res, err
	}
	res.Version = updated.VersionNumber()
	return res, nil
}

// parentID resolves a parent title, preferring pages handled earlier in this run.
func (e *Executor) parentID(ctx context.Context, p PageManifest, ids map[string]string) (string, error) {
	if p.Parent == "" {
		return "", nil
	}
	if id := ids[p.parentKey()]; id != "" {
		return id, nil
	}
	parent, err := e.findPage(ctx, p.Space, p.Parent, confluenceclient.ContentTypePage)
	if err != nil {
		return "", err
	}
	if parent == nil {
		return "", fmt.Errorf("parent page %q not found in space %s", p.Parent, p.Space)
	}
	return parent.ID, nil
}

func (e *Executor) findPage(ctx context.Context, space, title string, contentType confluenceclient.ContentType) (*confluenceclient.Content, error) {
	matches, err := e.contents.Get(ctx, confluenceclient.ContentQuery{
		Type:     contentType,
		SpaceKey: space,
		Title:    title,
		Expand:   []string{confluenceclient.ExpandBodyStorage, confluenceclient.ExpandVersion},
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func changeReason(a bool, aName string, b bool, bName string) string {
	switch {
	case a && b:
		return aName + ", " + bName
	case a:
		return aName
	default:
		return bName
	}
}
