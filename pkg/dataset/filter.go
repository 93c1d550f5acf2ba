package dataset

// FilterScenario returns a copy of the table narrowed to one scenario:
// rows tagged with the given name are kept, rows tagged with a different
// name are dropped, and untagged rows are always kept. Tags are cleared in
// the result, so filtering is idempotent. An empty name keeps every row.
func (t *Table) FilterScenario(name string) *Table {
	out := NewTable(t.Name, t.Columns...)
	for i, r := range t.Rows {
		tag := t.Scenario(i)
		if tag != "" && name != "" && tag != name {
			continue
		}
		out.Rows = append(out.Rows, r.Clone())
	}
	return out
}

// FilterScenario narrows every table to one scenario. See Table.FilterScenario.
func (d *Dataset) FilterScenario(name string) *Dataset {
	out := New()
	out.DeclaredOrder = d.DeclaredOrder
	for _, t := range d.tables {
		// Append cannot fail: names were unique in the source.
		_ = out.Append(t.FilterScenario(name))
	}
	return out
}
