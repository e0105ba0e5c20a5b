// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/teabranch/confluence-cli/internal/config"
)

// Formatter handles output formatting for different formats
type Formatter struct {
	format config.OutputFormat
	writer io.Writer
}

// NewFormatter creates a new formatter for the specified format
func NewFormatter(format config.OutputFormat, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
	}
}

// Format outputs data in the configured format
func (f *Formatter) Format(data any) error {
	switch f.format {
	case config.OutputJSON:
		return f.formatJSON(data)
	case config.OutputYAML:
		return f.formatYAML(data)
	case config.OutputTable, config.OutputText, "":
		return f.formatText(data)
	default:
		return fmt.Errorf("unsupported output format: %s", f.format)
	}
}

// structured reports whether the formatter emits machine-readable output.
func (f *Formatter) structured() bool {
	return f.format == config.OutputJSON || f.format == config.OutputYAML
}

func (f *Formatter) formatJSON(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (f *Formatter) formatYAML(data any) error {
	encoder := yaml.NewEncoder(f.writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

func (f *Formatter) formatText(data any) error {
	if data == nil {
		return nil
	}

	switch v := data.(type) {
	case TableData:
		return f.formatTableData(v)
	case KeyValues:
		return f.formatKeyValues(v)
	default:
		return f.formatSingleObject(v)
	}
}

// TableData represents structured table data with headers and rows
type TableData struct {
	Headers []string
	Rows    [][]string
}

// KeyValues is an ordered list of label/value pairs rendered as a two-column list.
type KeyValues [][2]string

func (f *Formatter) formatTableData(data TableData) error {
	if len(data.Rows) == 0 {
		_, err := fmt.Fprintln(f.writer, "No data found")
		return err
	}

	w := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)

	if len(data.Headers) > 0 {
		fmt.Fprintln(w, strings.Join(data.Headers, "\t"))
		separators := make([]string, len(data.Headers))
		for i := range separators {
			separators[i] = strings.Repeat("-", len(data.Headers[i]))
		}
		fmt.Fprintln(w, strings.Join(separators, "\t"))
	}

	for _, row := range data.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	return w.Flush()
}

func (f *Formatter) formatKeyValues(kv KeyValues) error {
	w := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	for _, pair := range kv {
		fmt.Fprintf(w, "%s:\t%s\n", pair[0], pair[1])
	}
	return w.Flush()
}

// formatSingleObject formats a struct as key-value pairs named after its json tags.
func (f *Formatter) formatSingleObject(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		_, err := fmt.Fprintf(f.writer, "%v\n", data)
		return err
	}

	kv := make(KeyValues, 0, v.NumField())
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
			if parts := strings.Split(tag, ","); parts[0] != "" {
				name = parts[0]
			}
		}
		kv = append(kv, [2]string{name, formatValue(v.Field(i))})
	}
	return f.formatKeyValues(kv)
}

// formatValue renders a reflect.Value on one line.
func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return "<invalid>"
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return "<nil>"
		}
		return formatValue(v.Elem())
	case reflect.Slice:
		if v.Len() == 0 {
			return "[]"
		}
		n := min(3, v.Len())
		elements := make([]string, 0, n)
		for i := 0; i < n; i++ {
			elements = append(elements, formatValue(v.Index(i)))
		}
		if v.Len() > 3 {
			return fmt.Sprintf("[%s... (%d items)]", strings.Join(elements, ", "), v.Len())
		}
		return fmt.Sprintf("[%s]", strings.Join(elements, ", "))
	case reflect.Map:
		return fmt.Sprintf("{%d items}", v.Len())
	case reflect.Struct:
		return fmt.Sprintf("<%s>", v.Type().Name())
	case reflect.String:
		return Truncate(v.String(), 100)
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}

// FormatList renders items as a table in text mode and as-is in JSON/YAML mode.
func FormatList[T any](formatter *Formatter, items []T, headers []string, rowFunc func(T) []string) error {
	if formatter.structured() {
		if items == nil {
			items = []T{}
		}
		return formatter.Format(items)
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, rowFunc(item))
	}
	return formatter.Format(TableData{Headers: headers, Rows: rows})
}
