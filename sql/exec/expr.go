package exec

import (
	"strings"

	"github.com/kruemmel-python/worldsql/sql/ast"
	"github.com/kruemmel-python/worldsql/sql/value"
)

// evalValueCell resolves the raw text carried by an ast.Value node: a
// quoted literal, a numeric literal, a function call, or a row lookup
// (current row first, then the outer row for correlated subqueries).
func evalValueCell(raw string, row Row, outer *Row) value.Cell {
	if raw == "" {
		return value.Null
	}
	if raw[0] == '\'' || raw[0] == '"' {
		return value.MakeCell(value.StripQuotes(raw), false)
	}
	if _, ok := value.ParseNumber(raw); ok {
		return value.MakeCell(raw, false)
	}
	if c := get(row, outer, raw); !value.IsNullish(c) {
		return c
	}
	if strings.Contains(raw, "(") && strings.HasSuffix(raw, ")") {
		return evalFunction(raw, row, outer)
	}
	return value.Null
}

// evalOperand resolves one side of a Compare/Between/Like/InList
// expression, which is itself an *ast.Expr (almost always Kind Value).
func evalOperand(e *ast.Expr, row Row, outer *Row, c *ctx) (value.Cell, error) {
	if e == nil {
		return value.Null, nil
	}
	if e.Kind == ast.Value {
		return evalValueCell(e.Value, row, outer), nil
	}
	truth, err := evalExpr(e, row, outer, c)
	if err != nil {
		return value.Null, err
	}
	if truth {
		return value.MakeCell("1", false), nil
	}
	return value.MakeCell("0", false), nil
}

// truthy reports whether a bare value used where a condition is expected
// counts as true: it is true unless it is null/empty or the literal text
// "0".
func truthy(c value.Cell) bool {
	if value.IsNullish(c) {
		return false
	}
	return c.Text != "0"
}

// evalExpr evaluates a boolean expression against row (and, for
// correlated subqueries, outer).
func evalExpr(e *ast.Expr, row Row, outer *Row, c *ctx) (bool, error) {
	if e == nil {
		return true, nil
	}
	switch e.Kind {
	case ast.And:
		l, err := evalExpr(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return evalExpr(e.Rhs, row, outer, c)
	case ast.Or:
		l, err := evalExpr(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return evalExpr(e.Rhs, row, outer, c)
	case ast.Not:
		v, err := evalExpr(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		return !v, nil
	case ast.Value:
		raw := e.Value
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "case") {
			return truthy(evalCaseExpr(raw, row, outer)), nil
		}
		return truthy(evalValueCell(raw, row, outer)), nil
	case ast.Compare:
		lhs, err := evalOperand(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		rhs, err := evalOperand(e.Rhs, row, outer, c)
		if err != nil {
			return false, err
		}
		return value.CompareCells(lhs, rhs, e.Op), nil
	case ast.Between:
		a, err := evalOperand(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		lo := evalValueCell(e.Value, row, outer)
		hi := evalValueCell(e.Value2, row, outer)
		return value.Between(a, lo, hi), nil
	case ast.Like:
		a, err := evalOperand(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		pattern := value.StripQuotes(e.Value)
		result := value.LikeMatch(a.Text, pattern)
		if e.Negate {
			return !result, nil
		}
		return result, nil
	case ast.Regexp:
		a, err := evalOperand(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		pattern := value.StripQuotes(e.Value)
		matched, err := regexpSearch(a.Text, pattern)
		if err != nil {
			return false, errf(errBadRegexp)
		}
		if e.Negate {
			return !matched, nil
		}
		return matched, nil
	case ast.IsNull:
		a, err := evalOperand(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		isNull := value.IsNullish(a)
		if e.Negate {
			return !isNull, nil
		}
		return isNull, nil
	case ast.InList:
		a, err := evalOperand(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		for _, raw := range e.List {
			if raw == "," {
				continue
			}
			cand := evalValueCell(raw, row, outer)
			if value.CompareCells(a, cand, "=") {
				return true, nil
			}
		}
		return false, nil
	case ast.InSubquery:
		a, err := evalOperand(e.Lhs, row, outer, c)
		if err != nil {
			return false, err
		}
		res, err := runCorrelatedSelect(c, e.Subquery, row)
		if err != nil {
			return false, err
		}
		for _, r := range res.Rows {
			if len(r) == 0 {
				continue
			}
			cand := value.MakeCell(r[0], false)
			if value.CompareCells(a, cand, "=") {
				return true, nil
			}
		}
		return false, nil
	case ast.Exists:
		res, err := runCorrelatedSelect(c, e.Subquery, row)
		if err != nil {
			return false, err
		}
		return len(res.Rows) > 0, nil
	}
	return false, nil
}
