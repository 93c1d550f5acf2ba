package delimited

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
)

// Parser reads a fixture directory into a dataset.
type Parser struct {
	// Format selects the file extension and delimiter.
	Format Format

	// Scenario, when non-empty, narrows every table to one scenario during
	// parsing. See dataset.Table.FilterScenario.
	Scenario string

	// SkipTables lists table base names to exclude. Skipped tables are not
	// read at all.
	SkipTables []string
}

// Parse reads the fixture directory dir with format f.
func Parse(dir string, f Format) (*dataset.Dataset, error) {
	p := Parser{Format: f}
	return p.ParseDir(dir)
}

// ParseDir reads every fixture file in dir into a dataset. Tables listed in
// the load-order file come first, remaining files follow alphabetically. A
// missing directory is a NotFoundError; an existing directory with no
// fixture files yields an empty dataset.
func (p *Parser) ParseDir(dir string) (*dataset.Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: dir, Err: err}
		}
		return nil, fmt.Errorf("read fixture directory: %w", err)
	}

	files := make(map[string]string)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !strings.EqualFold(ext, p.Format.Ext) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ext)
		if base == "" || p.skip(base) {
			continue
		}
		if _, dup := files[base]; dup {
			return nil, fmt.Errorf("duplicate fixture table %s in %s", base, dir)
		}
		files[base] = e.Name()
		names = append(names, base)
	}
	sort.Strings(names)

	declared, err := p.readOrder(dir)
	if err != nil {
		return nil, err
	}

	ds := dataset.New()
	ordered := names
	if declared != nil {
		ordered = nil
		listed := make(map[string]bool)
		var kept []string
		for _, name := range declared {
			if p.skip(name) {
				continue
			}
			if _, ok := files[name]; !ok {
				return nil, &NotFoundError{Path: dir, Table: name}
			}
			listed[name] = true
			ordered = append(ordered, name)
			kept = append(kept, name)
		}
		for _, name := range names {
			if !listed[name] {
				ordered = append(ordered, name)
			}
		}
		ds.DeclaredOrder = kept
	}

	for _, name := range ordered {
		path := filepath.Join(dir, files[name])
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture file: %w", err)
		}
		tbl, err := parseTable(path, name, data, p.Format.Delimiter)
		if err != nil {
			return nil, err
		}
		if err := ds.Append(tbl); err != nil {
			return nil, err
		}
	}

	if p.Scenario != "" {
		ds = ds.FilterScenario(p.Scenario)
	}
	return ds, nil
}

func (p *Parser) skip(name string) bool {
	return slices.Contains(p.SkipTables, name)
}

// readOrder loads the load-order file. A missing file yields (nil, nil).
func (p *Parser) readOrder(dir string) ([]string, error) {
	path := filepath.Join(dir, OrderFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read load-order file: %w", err)
	}

	seen := make(map[string]int)
	order := []string{}
	for i, raw := range strings.Split(string(data), "\n") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if prev, dup := seen[name]; dup {
			return nil, &ParseError{Path: path, Line: i + 1, Msg: fmt.Sprintf("table %s already listed on line %d", name, prev)}
		}
		seen[name] = i + 1
		order = append(order, name)
	}
	return order, nil
}

// parseTable builds one table from file content. The first record is the
// header; a header cell equal to ScenarioMarker designates the scenario tag
// column, which is dropped from the table.
func parseTable(path, name string, data []byte, delim byte) (*dataset.Table, error) {
	records, serr := scanRecords(data, delim)
	if serr != nil {
		return nil, &ParseError{Path: path, Line: serr.line, Column: serr.column, Msg: serr.msg}
	}
	if len(records) == 0 {
		return nil, &ParseError{Path: path, Line: 1, Msg: "missing header line"}
	}

	header := records[0]
	seen := make(map[string]int)
	for i, f := range header.fields {
		if f.text == "" {
			return nil, &ParseError{Path: path, Line: header.line, Column: i + 1, Msg: "empty column name"}
		}
		if prev, dup := seen[f.text]; dup {
			return nil, &ParseError{Path: path, Line: header.line, Column: i + 1, Msg: fmt.Sprintf("duplicate column %s (first at column %d)", f.text, prev)}
		}
		seen[f.text] = i + 1
	}

	marker := -1
	columns := make([]string, 0, len(header.fields))
	for i, f := range header.fields {
		if f.text == ScenarioMarker {
			marker = i
			continue
		}
		columns = append(columns, f.text)
	}

	tbl := dataset.NewTable(name, columns...)
	for _, rec := range records[1:] {
		if len(rec.fields) != len(header.fields) {
			return nil, &ParseError{Path: path, Line: rec.line, Msg: fmt.Sprintf("row has %d fields, header has %d", len(rec.fields), len(header.fields))}
		}
		tag := ""
		row := make(dataset.Row, 0, len(columns))
		for i, f := range rec.fields {
			if i == marker {
				tag = f.text
				continue
			}
			v, err := cellValue(f)
			if err != nil {
				return nil, &ParseError{Path: path, Line: rec.line, Column: i + 1, Msg: err.Error()}
			}
			row = append(row, v)
		}
		if err := tbl.AppendScenarioRow(tag, row); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return tbl, nil
}

// cellValue maps one scanned field to a cell value. Quoting decides the
// null question: a bare empty field is null, a quoted empty field is the
// empty string. The binary prefix is only honored in unquoted fields, so a
// quoted cell can hold the literal prefix as text.
func cellValue(f field) (dataset.Value, error) {
	if !f.quoted {
		if f.text == "" {
			return dataset.Null(), nil
		}
		if strings.HasPrefix(f.text, BinaryPrefix) {
			raw, err := base64.StdEncoding.DecodeString(f.text[len(BinaryPrefix):])
			if err != nil {
				return dataset.Value{}, fmt.Errorf("invalid base64 payload: %v", err)
			}
			return dataset.Binary(raw), nil
		}
	}
	return dataset.String(f.text), nil
}
