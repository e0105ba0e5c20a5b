package output

import (
	"strconv"
	"strings"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
)

var (
	spaceHeaders   = []string{"KEY", "NAME", "TYPE", "ID"}
	contentHeaders = []string{"ID", "TYPE", "TITLE", "SPACE", "VERSION"}
	versionHeaders = []string{"VERSION", "WHEN", "BY", "MESSAGE"}
)

// FormatSpaces renders a list of spaces.
func (f *Formatter) FormatSpaces(spaces []confluenceclient.Space) error {
	return FormatList(f, spaces, spaceHeaders, func(s confluenceclient.Space) []string {
		return []string{s.Key, s.Name, s.Type, idString(s.ID)}
	})
}

// FormatSpace renders a single space.
func (f *Formatter) FormatSpace(space *confluenceclient.Space) error {
	if f.structured() {
		return f.Format(space)
	}
	kv := KeyValues{
		{"Key", space.Key},
		{"Name", space.Name},
	}
	if space.ID != 0 {
		kv = append(kv, [2]string{"ID", idString(space.ID)})
	}
	if space.Type != "" {
		kv = append(kv, [2]string{"Type", space.Type})
	}
	if space.Description != nil && space.Description.Plain != nil {
		kv = append(kv, [2]string{"Description", space.Description.Plain.Value})
	}
	if space.Homepage != nil {
		kv = append(kv, [2]string{"Homepage", space.Homepage.ID})
	}
	return f.Format(kv)
}

// FormatContents renders a list of pages or blog posts.
func (f *Formatter) FormatContents(items []confluenceclient.Content) error {
	return FormatList(f, items, contentHeaders, func(c confluenceclient.Content) []string {
		space := ""
		if c.Space != nil {
			space = c.Space.Key
		}
		version := ""
		if n := c.VersionNumber(); n > 0 {
			version = strconv.Itoa(n)
		}
		return []string{c.ID, string(c.Type), Truncate(c.Title, 60), space, version}
	})
}

// FormatContent renders a single content item. The storage body, when expanded, is printed
// after the fields in text mode.
func (f *Formatter) FormatContent(content *confluenceclient.Content) error {
	if f.structured() {
		return f.Format(content)
	}
	kv := KeyValues{
		{"ID", content.ID},
		{"Type", string(content.Type)},
		{"Title", content.Title},
	}
	if content.Status != "" {
		kv = append(kv, [2]string{"Status", string(content.Status)})
	}
	if content.Space != nil {
		kv = append(kv, [2]string{"Space", content.Space.Key})
	}
	if n := content.VersionNumber(); n > 0 {
		kv = append(kv, [2]string{"Version", strconv.Itoa(n)})
	}
	if len(content.Ancestors) > 0 {
		ids := make([]string, len(content.Ancestors))
		for i, a := range content.Ancestors {
			ids[i] = a.ID
		}
		kv = append(kv, [2]string{"Ancestors", strings.Join(ids, " > ")})
	}
	if err := f.Format(kv); err != nil {
		return err
	}
	if body := content.StorageValue(); body != "" {
		_, err := f.writer.Write([]byte("\n" + body + "\n"))
		return err
	}
	return nil
}

// FormatVersions renders a version history.
func (f *Formatter) FormatVersions(versions []confluenceclient.Version) error {
	return FormatList(f, versions, versionHeaders, func(v confluenceclient.Version) []string {
		by := ""
		if v.By != nil {
			by = v.By.DisplayName
			if by == "" {
				by = v.By.Username
			}
		}
		return []string{strconv.Itoa(v.Number), v.When, by, Truncate(v.Message, 60)}
	})
}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
