// Package exec executes a parsed query against a store.World: row
// materialization, the scalar/aggregate evaluators, the join/filter/
// group/sort/slice pipeline, CTE and UNION composition, and the top-level
// SET/INSERT/UPDATE/DELETE dispatcher.
package exec

import (
	"strings"

	"github.com/kruemmel-python/worldsql/sql/value"
	"github.com/kruemmel-python/worldsql/store"
)

// Row is a key -> Cell map populated with three keys per source field:
// the bare column name, "table.col", and "alias.col", all lowercased.
type Row struct {
	values map[string]value.Cell
}

func newRow() Row {
	return Row{values: make(map[string]value.Cell)}
}

func (r Row) set(key string, c value.Cell) {
	r.values[strings.ToLower(key)] = c
}

// merge overlays other's keys onto r, returning a new combined row (used
// by JOIN to combine a left and right row without mutating either).
func (r Row) merge(other Row) Row {
	out := newRow()
	for k, v := range r.values {
		out.values[k] = v
	}
	for k, v := range other.values {
		out.values[k] = v
	}
	return out
}

// get resolves name against the current row first, then the outer row
// (for correlated subqueries), else a null cell.
func get(row Row, outer *Row, name string) value.Cell {
	key := strings.ToLower(name)
	if c, ok := row.values[key]; ok {
		return c
	}
	if outer != nil {
		if c, ok := outer.values[key]; ok {
			return c
		}
	}
	return value.Null
}

// rowForPayload materializes one payload into a Row, keyed by bare
// column, "table.col", and "alias.col" (alias defaults to the table name).
func rowForPayload(tableName, alias string, p store.Payload) Row {
	row := newRow()
	tableKey := strings.ToLower(tableName)
	aliasName := alias
	if aliasName == "" {
		aliasName = tableName
	}
	aliasKey := strings.ToLower(aliasName)
	for _, f := range p.Fields {
		colKey := strings.ToLower(f.Name)
		c := value.MakeCell(f.Value, false)
		row.set(colKey, c)
		row.set(tableKey+"."+colKey, c)
		row.set(aliasKey+"."+colKey, c)
	}
	return row
}

// rowsForResult materializes a CTE/subquery ResultSet into rows, keyed by
// bare column and, if alias is non-empty, "alias.col".
func rowsForResult(res ResultSet, alias string) []Row {
	rows := make([]Row, 0, len(res.Rows))
	aliasKey := strings.ToLower(alias)
	for _, r := range res.Rows {
		row := newRow()
		for i, v := range r {
			if i >= len(res.Columns) {
				break
			}
			colKey := strings.ToLower(res.Columns[i])
			c := value.MakeCell(v, false)
			row.set(colKey, c)
			if alias != "" {
				row.set(aliasKey+"."+colKey, c)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
