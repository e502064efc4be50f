package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/iancoleman/orderedmap"
	"github.com/jedib0t/go-pretty/v6/table"
)

/**
 * Convert a struct into an ordered map keyed by its json tags
 * @param {interface{}} v - Struct value
 * @returns {*orderedmap.OrderedMap} Fields in declaration order
 */
func StructToOrderedMap(v interface{}) (*orderedmap.OrderedMap, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal row: %w", err)
	}
	m := orderedmap.New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	return m, nil
}

// PrintFormat prints rows as a table on stdout
func PrintFormat(rows []*orderedmap.OrderedMap) {
	WriteFormat(os.Stdout, rows)
}

/**
 * Render rows as a table
 * @param {io.Writer} w - Output
 * @param {[]*orderedmap.OrderedMap} rows - Rows sharing the keys of the first row
 * @description
 * - Header is the upper-cased key list of the first row
 * - Missing values render as "-"
 */
func WriteFormat(w io.Writer, rows []*orderedmap.OrderedMap) {
	if len(rows) == 0 {
		return
	}
	keys := rows[0].Keys()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(keys))
	for _, k := range keys {
		header = append(header, k)
	}
	t.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, 0, len(keys))
		for _, k := range keys {
			v, ok := row.Get(k)
			if !ok || v == nil || v == "" {
				r = append(r, "-")
				continue
			}
			r = append(r, v)
		}
		t.AppendRow(r)
	}
	t.Render()
}
