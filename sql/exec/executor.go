package exec

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kruemmel-python/worldsql/sql/ast"
	"github.com/kruemmel-python/worldsql/sql/value"
	"github.com/kruemmel-python/worldsql/store"
)

// projected pairs one output row (already-formatted cell text, in select
// order) with the source Row it was derived from, so ORDER BY / DISTINCT
// ON can resolve keys that aren't in the select list.
type projected struct {
	values []string
	src    Row
}

// executeQuery runs the full scan -> join -> filter -> group/project ->
// distinct -> order -> distinct-on -> slice pipeline for one parsed
// SELECT.
func executeQuery(c *ctx, q *ast.Query, outer *Row) (ResultSet, error) {
	rows, err := resolveSource(c, q, outer)
	if err != nil {
		return ResultSet{}, err
	}

	rows, err = applyJoins(c, rows, q.Joins)
	if err != nil {
		return ResultSet{}, err
	}

	rows, err = filterWhere(rows, q.Where, outer, c)
	if err != nil {
		return ResultSet{}, err
	}

	if len(q.GroupBy) > 0 {
		for _, it := range q.SelectItems {
			if it.Kind == ast.Star {
				return ResultSet{}, errf(errStarWithGroupBy)
			}
		}
	}

	columns, projRows, err := projectRows(c, q, rows, outer)
	if err != nil {
		return ResultSet{}, err
	}

	if q.Distinct {
		projRows = dedupeRows(projRows)
	}

	if len(q.OrderBy) > 0 {
		sortRows(projRows, columns, q.OrderBy, outer)
	}

	if len(q.DistinctOn) > 0 {
		projRows = distinctOnRows(projRows, columns, q.DistinctOn, outer)
	}

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	limit := q.Limit
	if limit < 0 {
		limit = c.world.DefaultLimit()
	}
	projRows = sliceRows(projRows, offset, limit)

	out := make([][]string, len(projRows))
	for i, pr := range projRows {
		out[i] = pr.values
	}
	return ResultSet{Columns: columns, Rows: out}, nil
}

func resolveSource(c *ctx, q *ast.Query, outer *Row) ([]Row, error) {
	if q.FromSubquery != "" {
		res, err := composeAndExecute(c, q.FromSubquery, outer)
		if err != nil {
			return nil, err
		}
		return rowsForResult(res, q.FromAlias), nil
	}
	return resolveTableRows(c, q.FromTable, q.FromAlias)
}

func resolveTableRows(c *ctx, name, alias string) ([]Row, error) {
	if res, ok := c.ctes[strings.ToLower(name)]; ok {
		return rowsForResult(res, alias), nil
	}
	return tableScan(c, name, alias), nil
}

func inFocus(p store.Payload, fx, fy, radius int) bool {
	if !p.Placed {
		return false
	}
	dx := p.X - fx
	dy := p.Y - fy
	return dx*dx+dy*dy <= radius*radius
}

// tableScan iterates store payloads for one table, applying tombstone,
// delta-shadowing, and focus-filter rules.
func tableScan(c *ctx, name, alias string) []Row {
	tableID := c.world.FindTable(name)
	if tableID < 0 {
		return nil
	}
	tombstones := c.world.Tombstones()
	deltas := c.world.DeltaIndex()

	var rows []Row
	for _, p := range c.world.Payloads() {
		if p.TableID != tableID {
			continue
		}
		key := store.PayloadKey(p.TableID, p.ID)
		if _, dead := tombstones[key]; dead {
			continue
		}
		if !p.IsDelta {
			if _, shadowed := deltas[key]; shadowed {
				continue
			}
			if c.useFocus && !inFocus(p, c.focusX, c.focusY, c.radius) {
				continue
			}
		}
		rows = append(rows, rowForPayload(name, alias, p))
	}
	return rows
}

func joinKeyEqual(left Row, leftCol string, right Row, rightCol string) bool {
	a := get(left, nil, leftCol)
	b := get(right, nil, rightCol)
	return value.CompareCells(a, b, "=")
}

func applyJoins(c *ctx, rows []Row, joins []ast.JoinClause) ([]Row, error) {
	for _, j := range joins {
		rightRows, err := resolveTableRows(c, j.Table, j.Alias)
		if err != nil {
			return nil, err
		}
		var out []Row
		switch j.Kind {
		case ast.Cross:
			for _, l := range rows {
				for _, r := range rightRows {
					out = append(out, l.merge(r))
				}
			}
		case ast.Inner:
			for _, l := range rows {
				for _, r := range rightRows {
					if joinKeyEqual(l, j.LeftCol, r, j.RightCol) {
						out = append(out, l.merge(r))
					}
				}
			}
		case ast.Left:
			for _, l := range rows {
				matched := false
				for _, r := range rightRows {
					if joinKeyEqual(l, j.LeftCol, r, j.RightCol) {
						matched = true
						out = append(out, l.merge(r))
					}
				}
				if !matched {
					out = append(out, l)
				}
			}
		case ast.Right:
			for _, r := range rightRows {
				matched := false
				for _, l := range rows {
					if joinKeyEqual(l, j.LeftCol, r, j.RightCol) {
						matched = true
						out = append(out, l.merge(r))
					}
				}
				if !matched {
					out = append(out, r)
				}
			}
		}
		rows = out
	}
	return rows, nil
}

func filterWhere(rows []Row, where *ast.Expr, outer *Row, c *ctx) ([]Row, error) {
	if where == nil {
		return rows, nil
	}
	var out []Row
	for _, r := range rows {
		ok, err := evalExpr(where, r, outer, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func selectItemName(it ast.SelectItem) string {
	if it.Alias != "" {
		return it.Alias
	}
	switch it.Kind {
	case ast.Agg:
		return it.Raw
	case ast.Func:
		return it.Raw
	default:
		return it.Column
	}
}

func isAggFunc(fn string) bool {
	switch strings.ToLower(fn) {
	case "count", "sum", "avg", "min", "max":
		return true
	}
	return false
}

type aggSpec struct {
	fn, col, raw string
}

func collectAggSpecs(items []ast.SelectItem, having *ast.Expr) []aggSpec {
	seen := map[string]bool{}
	var specs []aggSpec
	add := func(raw string) {
		fn, col, ok := splitFuncCall(raw)
		if !ok || !isAggFunc(fn) || seen[raw] {
			return
		}
		seen[raw] = true
		specs = append(specs, aggSpec{fn: fn, col: col, raw: raw})
	}
	for _, it := range items {
		if it.Kind == ast.Agg {
			add(it.Raw)
		}
	}
	walkExprValues(having, add)
	return specs
}

func walkExprValues(e *ast.Expr, visit func(string)) {
	if e == nil {
		return
	}
	if e.Kind == ast.Value {
		visit(e.Value)
	}
	walkExprValues(e.Lhs, visit)
	walkExprValues(e.Rhs, visit)
}

// projectRows chooses grouped aggregate projection when the query
// groups or is aggregate-only, else per-row projection.
func projectRows(c *ctx, q *ast.Query, rows []Row, outer *Row) ([]string, []projected, error) {
	hasGroupBy := len(q.GroupBy) > 0
	hasAgg := false
	allAgg := true
	for _, it := range q.SelectItems {
		if it.Kind == ast.Agg {
			hasAgg = true
		} else {
			allAgg = false
		}
	}
	pureAgg := hasAgg && !hasGroupBy && allAgg

	if hasGroupBy || pureAgg {
		return projectGrouped(c, q, rows, outer)
	}

	for _, it := range q.SelectItems {
		if it.Kind == ast.Agg {
			return nil, nil, errf(errAggWithoutGroup)
		}
	}
	return projectPerRow(q, rows, outer)
}

func projectPerRow(q *ast.Query, rows []Row, outer *Row) ([]string, []projected, error) {
	var columns []string
	hasStar := len(q.SelectItems) == 1 && q.SelectItems[0].Kind == ast.Star
	if !hasStar {
		for _, it := range q.SelectItems {
			columns = append(columns, selectItemName(it))
		}
	}

	out := make([]projected, 0, len(rows))
	for _, r := range rows {
		var values []string
		if hasStar {
			var cols []string
			for k := range r.values {
				if !strings.Contains(k, ".") {
					cols = append(cols, k)
				}
			}
			for _, k := range cols {
				values = append(values, r.values[k].Text)
			}
			if columns == nil {
				columns = cols
			}
		} else {
			for _, it := range q.SelectItems {
				values = append(values, projectScalarItem(it, r, outer).Text)
			}
		}
		out = append(out, projected{values: values, src: r})
	}
	return columns, out, nil
}

func projectScalarItem(it ast.SelectItem, row Row, outer *Row) value.Cell {
	switch it.Kind {
	case ast.Func:
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(it.Raw)), "case") {
			return evalCaseExpr(it.Raw, row, outer)
		}
		return evalFunction(it.Raw, row, outer)
	case ast.Column:
		return evalValueCell(it.Column, row, outer)
	}
	return value.Null
}

func projectGrouped(c *ctx, q *ast.Query, rows []Row, outer *Row) ([]string, []projected, error) {
	specs := collectAggSpecs(q.SelectItems, q.Having)

	type bucket struct {
		key  string
		rows []Row
	}
	var buckets []bucket
	index := map[string]int{}
	if len(q.GroupBy) == 0 {
		buckets = append(buckets, bucket{key: "", rows: rows})
	} else {
		for _, r := range rows {
			k := groupKey(q.GroupBy, r, outer)
			if idx, ok := index[k]; ok {
				buckets[idx].rows = append(buckets[idx].rows, r)
			} else {
				index[k] = len(buckets)
				buckets = append(buckets, bucket{key: k, rows: []Row{r}})
			}
		}
	}

	var columns []string
	for _, it := range q.SelectItems {
		columns = append(columns, selectItemName(it))
	}

	var out []projected
	for _, b := range buckets {
		var rep Row
		if len(b.rows) > 0 {
			rep = b.rows[0]
		} else {
			rep = newRow()
		}

		aggVals := map[string]value.Cell{}
		for _, spec := range specs {
			aggVals[spec.raw] = evalAggregate(spec.fn, spec.col, b.rows, outer)
		}

		synthetic := newRow()
		for _, col := range q.GroupBy {
			synthetic.set(col, evalValueCell(col, rep, outer))
		}
		for raw, v := range aggVals {
			synthetic.set(raw, v)
		}
		for _, it := range q.SelectItems {
			if it.Kind == ast.Agg && it.Alias != "" {
				synthetic.set(it.Alias, aggVals[it.Raw])
			}
		}

		if q.Having != nil {
			ok, err := evalExpr(q.Having, synthetic, outer, c)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				continue
			}
		}

		values := make([]string, 0, len(q.SelectItems))
		for _, it := range q.SelectItems {
			switch it.Kind {
			case ast.Agg:
				values = append(values, aggVals[it.Raw].Text)
			case ast.Func:
				if strings.HasPrefix(strings.ToLower(strings.TrimSpace(it.Raw)), "case") {
					values = append(values, evalCaseExpr(it.Raw, rep, outer).Text)
				} else {
					values = append(values, evalFunction(it.Raw, rep, outer).Text)
				}
			default:
				values = append(values, evalValueCell(it.Column, rep, outer).Text)
			}
		}
		out = append(out, projected{values: values, src: synthetic})
	}
	return columns, out, nil
}

func dedupeRows(rows []projected) []projected {
	seen := map[string]bool{}
	var out []projected
	for _, r := range rows {
		k := strings.Join(r.values, "\x1f")
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// resolveOrderCell resolves an ORDER BY key: positional index, then
// output column name, then row lookup.
func resolveOrderCell(pr projected, key string, columns []string, outer *Row) value.Cell {
	if n, err := strconv.Atoi(key); err == nil {
		idx := n - 1
		if idx >= 0 && idx < len(pr.values) {
			return value.MakeCell(pr.values[idx], false)
		}
	}
	for i, col := range columns {
		if strings.EqualFold(col, key) && i < len(pr.values) {
			return value.MakeCell(pr.values[i], false)
		}
	}
	return get(pr.src, outer, key)
}

func sortRows(rows []projected, columns []string, orderBy []ast.OrderBy, outer *Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ob := range orderBy {
			a := resolveOrderCell(rows[i], ob.Key, columns, outer)
			b := resolveOrderCell(rows[j], ob.Key, columns, outer)
			cmp := compareOrderCells(a, b, ob.NullsLast)
			if cmp == 0 {
				continue
			}
			if ob.Asc {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}

func compareOrderCells(a, b value.Cell, nullsLast bool) int {
	if value.IsNullish(a) && value.IsNullish(b) {
		return 0
	}
	if value.IsNullish(a) {
		if nullsLast {
			return 1
		}
		return -1
	}
	if value.IsNullish(b) {
		if nullsLast {
			return -1
		}
		return 1
	}
	if a.HasNumber && b.HasNumber {
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.Text, b.Text)
}

func distinctOnRows(rows []projected, columns []string, keys []string, outer *Row) []projected {
	seen := map[string]bool{}
	var out []projected
	for _, r := range rows {
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = resolveOrderCell(r, k, columns, outer).Text
		}
		key := strings.Join(parts, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func sliceRows(rows []projected, offset, limit int) []projected {
	if offset > len(rows) {
		offset = len(rows)
	}
	rows = rows[offset:]
	if limit < 0 {
		return rows
	}
	if limit > len(rows) {
		limit = len(rows)
	}
	return rows[:limit]
}
