package delimited

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
)

// Writer serializes a dataset to a fixture directory, one file per table.
// Writing then parsing reconstructs an equal dataset: nulls stay bare,
// empty strings stay quoted, binary cells keep the base64 prefix, and
// scenario tags reappear as a marker column.
type Writer struct {
	Format Format
}

// Write serializes ds into dir with format f.
func Write(ds *dataset.Dataset, dir string, f Format) error {
	w := Writer{Format: f}
	return w.WriteDir(ds, dir)
}

// WriteDir serializes every table of ds into dir, creating it if needed.
// When the dataset carries a declared order, the load-order file is written
// alongside the fixture files.
func (w *Writer) WriteDir(ds *dataset.Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create fixture directory: %w", err)
	}
	for _, t := range ds.Tables() {
		path := filepath.Join(dir, t.Name+w.Format.Ext)
		if err := os.WriteFile(path, w.encodeTable(t), 0o644); err != nil {
			return fmt.Errorf("write fixture file: %w", err)
		}
	}
	if ds.DeclaredOrder != nil {
		path := filepath.Join(dir, OrderFile)
		content := strings.Join(ds.DeclaredOrder, "\n") + "\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write load-order file: %w", err)
		}
	}
	return nil
}

func (w *Writer) encodeTable(t *dataset.Table) []byte {
	var b strings.Builder
	tagged := t.Scenarios != nil

	cells := make([]string, 0, len(t.Columns)+1)
	if tagged {
		cells = append(cells, w.encodeText(ScenarioMarker))
	}
	for _, c := range t.Columns {
		cells = append(cells, w.encodeText(c))
	}
	b.WriteString(strings.Join(cells, string(w.Format.Delimiter)))
	b.WriteByte('\n')

	for i, row := range t.Rows {
		cells = cells[:0]
		if tagged {
			if tag := t.Scenario(i); tag == "" {
				cells = append(cells, "")
			} else {
				cells = append(cells, w.encodeText(tag))
			}
		}
		for _, v := range row {
			cells = append(cells, w.encodeCell(v))
		}
		b.WriteString(strings.Join(cells, string(w.Format.Delimiter)))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// encodeCell renders one value: nulls as a bare empty field, binary with
// the base64 prefix, text quoted exactly when parsing would otherwise
// change its meaning.
func (w *Writer) encodeCell(v dataset.Value) string {
	switch {
	case v.IsNull():
		return ""
	case v.IsBinary():
		return BinaryPrefix + base64.StdEncoding.EncodeToString(v.Bytes())
	default:
		return w.encodeText(v.Text())
	}
}

func (w *Writer) encodeText(s string) string {
	if w.needsQuote(s) {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func (w *Writer) needsQuote(s string) bool {
	if s == "" || strings.HasPrefix(s, BinaryPrefix) {
		return true
	}
	return strings.ContainsAny(s, string(w.Format.Delimiter)+"\"\n\r")
}
