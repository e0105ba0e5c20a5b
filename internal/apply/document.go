// Package apply reconciles a declarative YAML document of spaces and pages against a
// Confluence server: missing resources are created, changed ones updated, the rest left alone.
package apply

import (
	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
)

// APIVersion is the only document version understood by the loader.
const APIVersion = "confluence.teabranch.io/v1"

// KindApplyDocument identifies an apply document.
const KindApplyDocument = "ApplyDocument"

// Document is the root of an apply file.
//
//	apiVersion: confluence.teabranch.io/v1
//	kind: ApplyDocument
//	metadata:
//	  name: test-fixtures
//	spaces:
//	  - key: TSTCONTENT
//	    name: Test contents
//	pages:
//	  - space: TSTCONTENT
//	    title: Parent Page
//	    body: <p>I am the parent</p>
//	  - space: TSTCONTENT
//	    title: Child Page
//	    parent: Parent Page
//	    bodyFile: child.xhtml
type Document struct {
	APIVersion string          `yaml:"apiVersion" validate:"required,eq=confluence.teabranch.io/v1"`
	Kind       string          `yaml:"kind" validate:"required,eq=ApplyDocument"`
	Metadata   Metadata        `yaml:"metadata"`
	Spaces     []SpaceManifest `yaml:"spaces" validate:"dive"`
	Pages      []PageManifest  `yaml:"pages" validate:"dive"`
}

// Metadata names a document.
type Metadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// SpaceManifest declares a global space.
type SpaceManifest struct {
	Key         string `yaml:"key" validate:"required,spacekey,max=255"`
	Name        string `yaml:"name" validate:"required,max=200"`
	Description string `yaml:"description,omitempty"`
}

// PageManifest declares a page or blog post, identified by space and title. Parent is the
// title of another page in the same space.
type PageManifest struct {
	Space    string                       `yaml:"space" validate:"required,spacekey"`
	Title    string                       `yaml:"title" validate:"required,max=255"`
	Type     confluenceclient.ContentType `yaml:"type,omitempty" validate:"omitempty,oneof=page blogpost"`
	Parent   string                       `yaml:"parent,omitempty"`
	Body     string                       `yaml:"body,omitempty"`
	BodyFile string                       `yaml:"bodyFile,omitempty"`
}

func (p PageManifest) key() string { return p.Space + "/" + p.Title }

func (p PageManifest) parentKey() string { return p.Space + "/" + p.Parent }

func (p PageManifest) contentType() confluenceclient.ContentType {
	if p.Type == "" {
		return confluenceclient.ContentTypePage
	}
	return p.Type
}
