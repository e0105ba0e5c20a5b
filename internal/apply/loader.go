package apply

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teabranch/confluence-cli/internal/validation"
)

// MaxDocumentSize caps the size of an apply file.
const MaxDocumentSize = 10 * 1024 * 1024

// LoaderOptions controls document loading.
type LoaderOptions struct {
	StrictEnv bool // fail on ${VAR} references to unset variables
	Stdin     io.Reader
}

// LoadDocument reads, expands, decodes and validates an apply file. source "-" reads stdin.
// bodyFile paths are resolved relative to the file and inlined into Body.
func LoadDocument(source string, opts LoaderOptions) (*Document, error) {
	raw, baseDir, err := readSource(source, opts.Stdin)
	if err != nil {
		return nil, err
	}

	expanded, err := expandEnv(string(raw), opts.StrictEnv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if strings.TrimSpace(expanded) == "" {
		return nil, fmt.Errorf("%s: document is empty", source)
	}

	doc, err := ParseDocument([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	for i := range doc.Pages {
		p := &doc.Pages[i]
		if p.BodyFile == "" {
			continue
		}
		path := p.BodyFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path) //nolint:gosec // paths come from the user's own document
		if err != nil {
			return nil, fmt.Errorf("%s: page %q: read body file: %w", source, p.Title, err)
		}
		p.Body = string(data)
	}

	return doc, nil
}

// ParseDocument decodes and validates a document. Unknown fields are rejected.
func ParseDocument(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("document is empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks field constraints and cross references: unique spaces and pages, body and
// bodyFile not both set, and every parent declared earlier or later in the same space.
func Validate(doc *Document) error {
	if err := validation.Struct(doc); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	spaces := map[string]bool{}
	for _, s := range doc.Spaces {
		if spaces[s.Key] {
			return fmt.Errorf("invalid document: space %s declared twice", s.Key)
		}
		spaces[s.Key] = true
	}

	pages := map[string]bool{}
	for _, p := range doc.Pages {
		if pages[p.key()] {
			return fmt.Errorf("invalid document: page %q declared twice in space %s", p.Title, p.Space)
		}
		pages[p.key()] = true
		if p.Body != "" && p.BodyFile != "" {
			return fmt.Errorf("invalid document: page %q sets both body and bodyFile", p.Title)
		}
		if p.Parent == p.Title && p.Parent != "" {
			return fmt.Errorf("invalid document: page %q is its own parent", p.Title)
		}
	}

	if _, err := orderPages(doc.Pages); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return nil
}

// orderPages returns pages with every declared parent ahead of its children. Parents not in
// the document are expected to exist on the server.
func orderPages(pages []PageManifest) ([]PageManifest, error) {
	index := make(map[string]int, len(pages))
	for i, p := range pages {
		index[p.key()] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(pages))
	ordered := make([]PageManifest, 0, len(pages))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("parent cycle at page %q", pages[i].Title)
		}
		state[i] = visiting
		if pages[i].Parent != "" {
			if j, ok := index[pages[i].parentKey()]; ok {
				if err := visit(j); err != nil {
					return err
				}
			}
		}
		state[i] = done
		ordered = append(ordered, pages[i])
		return nil
	}

	for i := range pages {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

func readSource(source string, stdin io.Reader) ([]byte, string, error) {
	var r io.Reader
	baseDir := "."
	if source == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		r = stdin
	} else {
		f, err := os.Open(source) //nolint:gosec // user-specified path is expected for a CLI tool
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", source, err)
		}
		defer f.Close()
		r = f
		baseDir = filepath.Dir(source)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", source, err)
	}
	if len(data) > MaxDocumentSize {
		return nil, "", fmt.Errorf("%s exceeds %d bytes", source, MaxDocumentSize)
	}
	return data, baseDir, nil
}

// envReference matches ${NAME} and the \${ escape. Bare $NAME and $1 are plain text.
var envReference = regexp.MustCompile(`\\\$\{|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes ${VAR} references and turns \${ into a literal ${. In strict mode an
// unset variable is an error; otherwise it expands to the empty string.
func expandEnv(content string, strict bool) (string, error) {
	var missing []string
	seen := map[string]bool{}
	out := envReference.ReplaceAllStringFunc(content, func(match string) string {
		if match == `\${` {
			return "${"
		}
		name := match[2 : len(match)-1]
		v, ok := os.LookupEnv(name)
		if !ok && strict && !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("undefined environment variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
