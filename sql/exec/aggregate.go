package exec

import (
	"strconv"
	"strings"

	"github.com/kruemmel-python/worldsql/sql/value"
)

// aggState accumulates one aggregate function's running state across the
// rows of a single group.
type aggState struct {
	count     int
	sum       float64
	hasMin    bool
	min       value.Cell
	hasMax    bool
	max       value.Cell
	countStar bool
}

func newAggState(fn string) *aggState {
	return &aggState{countStar: strings.EqualFold(fn, "count")}
}

// updateMinMax folds one cell into the running min/max, using the same
// numeric-else-text comparison rule as CompareCells.
func (a *aggState) updateMinMax(c value.Cell) {
	if !a.hasMin || value.CompareCells(c, a.min, "<") {
		a.min = c
		a.hasMin = true
	}
	if !a.hasMax || value.CompareCells(c, a.max, ">") {
		a.max = c
		a.hasMax = true
	}
}

func (a *aggState) update(c value.Cell) {
	if value.IsNullish(c) {
		return
	}
	a.count++
	if n, ok := value.ParseNumber(c.Text); ok {
		a.sum += n
	}
	a.updateMinMax(c)
}

// evalAggregate computes one aggregate function over the rows of a group.
// col is either "*" (count only) or a column/expression to evaluate per
// row.
func evalAggregate(fn, col string, rows []Row, outer *Row) value.Cell {
	fn = strings.ToLower(fn)
	if fn == "count" && col == "*" {
		return value.MakeCell(strconv.Itoa(len(rows)), false)
	}
	st := newAggState(fn)
	for _, r := range rows {
		c := evalValueCell(col, r, outer)
		st.update(c)
	}
	switch fn {
	case "count":
		return value.MakeCell(strconv.Itoa(st.count), false)
	case "sum":
		return value.MakeCell(formatDouble(st.sum), false)
	case "avg":
		if st.count == 0 {
			return value.Null
		}
		return value.MakeCell(formatDouble(st.sum/float64(st.count)), false)
	case "min":
		if !st.hasMin {
			return value.Null
		}
		return st.min
	case "max":
		if !st.hasMax {
			return value.Null
		}
		return st.max
	}
	return value.Null
}

// groupKey builds a stable string key for a GROUP BY bucket by joining
// each key column's evaluated cell text with a separator unlikely to
// collide with real field text.
func groupKey(groupBy []string, row Row, outer *Row) string {
	if len(groupBy) == 0 {
		return ""
	}
	parts := make([]string, len(groupBy))
	for i, col := range groupBy {
		parts[i] = evalValueCell(col, row, outer).Text
	}
	return strings.Join(parts, "\x1f")
}
