package confluence

// ContentType identifies the kind of content resource.
type ContentType string

const (
	ContentTypePage     ContentType = "page"
	ContentTypeBlogPost ContentType = "blogpost"
)

// ContentStatus is the lifecycle status Confluence reports for content.
type ContentStatus string

const (
	ContentStatusCurrent    ContentStatus = "current"
	ContentStatusTrashed    ContentStatus = "trashed"
	ContentStatusDraft      ContentStatus = "draft"
	ContentStatusHistorical ContentStatus = "historical"
)

// Representation names used for body and description values.
const (
	RepresentationStorage = "storage"
	RepresentationPlain   = "plain"
)

// Common expansions.
const (
	ExpandBodyStorage = "body.storage"
	ExpandVersion     = "version"
	ExpandAncestors   = "ancestors"
	ExpandSpace       = "space"
	ExpandHomepage    = "homepage"
	ExpandDescription = "description.plain"
)

// Space represents a Confluence space.
type Space struct {
	ID          int64             `json:"id,omitempty"`
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Type        string            `json:"type,omitempty"`
	Status      string            `json:"status,omitempty"`
	Description *SpaceDescription `json:"description,omitempty"`
	Homepage    *Content          `json:"homepage,omitempty"`
	Links       *Links            `json:"_links,omitempty"`
}

// SpaceDescription contains the description variants of a space.
type SpaceDescription struct {
	Plain *DescriptionValue `json:"plain,omitempty"`
}

// DescriptionValue holds a text value with its representation.
type DescriptionValue struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// SpaceRef is a lightweight space reference embedded in content.
type SpaceRef struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// Content represents a page or blog post.
type Content struct {
	ID        string        `json:"id,omitempty"`
	Type      ContentType   `json:"type"`
	Status    ContentStatus `json:"status,omitempty"`
	Title     string        `json:"title"`
	Space     *SpaceRef     `json:"space,omitempty"`
	Body      *Body         `json:"body,omitempty"`
	Version   *Version      `json:"version,omitempty"`
	Ancestors []ContentRef  `json:"ancestors,omitempty"`
	Links     *Links        `json:"_links,omitempty"`
}

// StorageValue returns the storage-format body, or "" when the body was not expanded.
func (c *Content) StorageValue() string {
	if c == nil || c.Body == nil || c.Body.Storage == nil {
		return ""
	}
	return c.Body.Storage.Value
}

// VersionNumber returns the content version, or 0 when version was not expanded.
func (c *Content) VersionNumber() int {
	if c == nil || c.Version == nil {
		return 0
	}
	return c.Version.Number
}

// Body holds the expandable body representations.
type Body struct {
	Storage *Storage `json:"storage,omitempty"`
}

// Storage is a body value in a given representation.
type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// Version describes one revision of a content item.
type Version struct {
	Number    int    `json:"number"`
	When      string `json:"when,omitempty"`
	Message   string `json:"message,omitempty"`
	MinorEdit bool   `json:"minorEdit,omitempty"`
	By        *User  `json:"by,omitempty"`
}

// ContentRef is a lightweight content reference, used for ancestors.
type ContentRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// User is the subset of a Confluence user we surface.
type User struct {
	Type        string `json:"type,omitempty"`
	Username    string `json:"username,omitempty"`
	UserKey     string `json:"userKey,omitempty"`
	AccountID   string `json:"accountId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Links contains hypermedia links.
type Links struct {
	Base    string `json:"base,omitempty"`
	Context string `json:"context,omitempty"`
	Self    string `json:"self,omitempty"`
	Next    string `json:"next,omitempty"`
	WebUI   string `json:"webui,omitempty"`
}

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Results []T    `json:"results"`
	Start   int    `json:"start"`
	Limit   int    `json:"limit"`
	Size    int    `json:"size"`
	Links   *Links `json:"_links,omitempty"`
}

// HasNext reports whether the server advertised a further page.
func (p *Page[T]) HasNext() bool {
	if p == nil {
		return false
	}
	if p.Links != nil && p.Links.Next != "" {
		return true
	}
	return p.Limit > 0 && p.Size >= p.Limit
}
