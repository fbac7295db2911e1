// Package results holds the normalised output of an executed or dry-run
// query.
package results

// Results is one page of rows plus paging metadata.
type Results struct {
	// Columns lists the row keys in the order the backend returned them.
	Columns []string `json:"columns,omitempty"`
	// Rows holds one map per row, keyed by output column name.
	Rows []map[string]any `json:"rows"`
	// Found is the number of rows matching the filter across all pages,
	// or -1 when the backend did not count.
	Found  int `json:"found"`
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	// Next continues after the last row when the page is full.
	Next string `json:"next,omitempty"`
	// Debug is set for dry runs and debug executions.
	Debug *Debug `json:"debug,omitempty"`
}

// Debug exposes the compiled query.
type Debug struct {
	Dialect   string `json:"dialect"`
	Text      string `json:"text"`
	CountText string `json:"count_text,omitempty"`
	Values    []any  `json:"values"`
}

// Len returns the number of rows.
func (r *Results) Len() int { return len(r.Rows) }

// Values returns the value of column for every row, in row order.
func (r *Results) Values(column string) []any {
	out := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row[column]
	}
	return out
}

// Map converts r into plain maps and slices, the shape MarshalCanonical
// and the CLI text output work from.
func (r *Results) Map() map[string]any {
	rows := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(row))
		for k, v := range row {
			m[k] = v
		}
		rows[i] = m
	}
	out := map[string]any{
		"rows":   rows,
		"found":  r.Found,
		"page":   r.Page,
		"limit":  r.Limit,
		"offset": r.Offset,
	}
	if r.Next != "" {
		out["next"] = r.Next
	}
	if r.Debug != nil {
		out["debug"] = r.Debug.Map()
	}
	return out
}

// Map converts d into plain maps and slices.
func (d *Debug) Map() map[string]any {
	out := map[string]any{
		"dialect": d.Dialect,
		"text":    d.Text,
		"values":  append([]any{}, d.Values...),
	}
	if d.CountText != "" {
		out["count_text"] = d.CountText
	}
	return out
}
