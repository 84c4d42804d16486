package store

import (
	"strings"

	"github.com/kruemmel-python/worldsql/sql/ast"
	"github.com/kruemmel-python/worldsql/sql/lexer"
	"github.com/kruemmel-python/worldsql/sql/parser"
	"github.com/kruemmel-python/worldsql/sql/value"
)

// dmlError is a plain user-facing message, matching the style of the
// query engine's own QueryError but kept independent of sql/exec to
// avoid a store <-> exec import cycle.
type dmlError string

func (e dmlError) Error() string { return string(e) }

const errNotMutable = dmlError("World: Schreibzugriff wird von diesem Store nicht unterstuetzt.")

func asMutable(w World) (Mutable, error) {
	m, ok := w.(Mutable)
	if !ok {
		return nil, errNotMutable
	}
	return m, nil
}

func tokensToStrings(tokens []lexer.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = string(t)
	}
	return out
}

// ApplyInsertSQL parses "INSERT INTO table (col, ...) VALUES (v, ...)[, (v, ...)]*"
// and appends one new base payload per value tuple.
func ApplyInsertSQL(w World, sqlText string) (int, error) {
	m, err := asMutable(w)
	if err != nil {
		return 0, err
	}
	tokens := tokensToStrings(lexer.Tokenize(sqlText))
	pos := 0
	expect := func(kw string) bool {
		if pos < len(tokens) && strings.EqualFold(tokens[pos], kw) {
			pos++
			return true
		}
		return false
	}
	if !expect("insert") || !expect("into") {
		return 0, dmlError("INSERT: ungueltige Syntax.")
	}
	if pos >= len(tokens) {
		return 0, dmlError("INSERT: fehlender Tabellenname.")
	}
	tableName := tokens[pos]
	pos++
	tableID := m.FindTable(tableName)
	if tableID < 0 {
		return 0, dmlError("INSERT: unbekannte Tabelle.")
	}

	cols, next, err := parseParenList(tokens, pos)
	if err != nil {
		return 0, err
	}
	pos = next
	if !expect("values") {
		return 0, dmlError("INSERT: VALUES erwartet.")
	}

	inserted := 0
	for {
		values, next, err := parseParenList(tokens, pos)
		if err != nil {
			return inserted, err
		}
		pos = next
		fields := make([]Field, 0, len(cols))
		for i, col := range cols {
			if i >= len(values) {
				break
			}
			fields = append(fields, Field{Name: col, Value: value.StripQuotes(values[i])})
		}
		m.InsertBase(tableID, false, 0, 0, fields)
		inserted++
		if pos < len(tokens) && tokens[pos] == "," {
			pos++
			continue
		}
		break
	}
	return inserted, nil
}

// parseParenList parses "(a, b, c)" starting at pos (which must point at
// "(") and returns its comma-separated elements and the position after
// the closing paren.
func parseParenList(tokens []string, pos int) ([]string, int, error) {
	if pos >= len(tokens) || tokens[pos] != "(" {
		return nil, pos, dmlError("SQL: '(' erwartet.")
	}
	pos++
	var items []string
	for pos < len(tokens) && tokens[pos] != ")" {
		items = append(items, tokens[pos])
		pos++
		if pos < len(tokens) && tokens[pos] == "," {
			pos++
		}
	}
	if pos >= len(tokens) || tokens[pos] != ")" {
		return nil, pos, dmlError("SQL: ')' erwartet.")
	}
	pos++
	return items, pos, nil
}

// ApplyUpdateSQL parses "UPDATE table SET col=val, ... [WHERE expr]" and
// overlays a delta for every matching row.
func ApplyUpdateSQL(w World, sqlText string) (int, error) {
	m, err := asMutable(w)
	if err != nil {
		return 0, err
	}
	lower := strings.ToLower(sqlText)
	setPos := strings.Index(lower, " set ")
	if !strings.HasPrefix(lower, "update ") || setPos < 0 {
		return 0, dmlError("UPDATE: ungueltige Syntax.")
	}
	tableName := strings.TrimSpace(sqlText[len("update") : setPos+1])
	tableID := m.FindTable(tableName)
	if tableID < 0 {
		return 0, dmlError("UPDATE: unbekannte Tabelle.")
	}

	rest := sqlText[setPos+len(" set "):]
	wherePos := indexKeyword(rest, "where")
	assignText := rest
	var whereExpr *ast.Expr
	if wherePos >= 0 {
		assignText = rest[:wherePos]
		whereExpr, err = parser.ParseExpr(rest[wherePos+len("where"):])
		if err != nil {
			return 0, err
		}
	}
	assignments := parseAssignments(assignText)

	updated := 0
	for _, p := range effectiveRows(m, tableID) {
		if whereExpr != nil && !matchesWhere(whereExpr, p.Fields) {
			continue
		}
		m.ApplyDelta(p.TableID, p.ID, mergeFields(p.Fields, assignments))
		updated++
	}
	return updated, nil
}

// ApplyDeleteSQL parses "DELETE FROM table [WHERE expr]" and tombstones
// every matching row.
func ApplyDeleteSQL(w World, sqlText string) (int, error) {
	m, err := asMutable(w)
	if err != nil {
		return 0, err
	}
	lower := strings.ToLower(sqlText)
	if !strings.HasPrefix(lower, "delete from ") {
		return 0, dmlError("DELETE: ungueltige Syntax.")
	}
	rest := sqlText[len("delete from "):]
	wherePos := indexKeyword(rest, "where")
	tableName := rest
	var whereExpr *ast.Expr
	if wherePos >= 0 {
		tableName = rest[:wherePos]
		whereExpr, err = parser.ParseExpr(rest[wherePos+len("where"):])
		if err != nil {
			return 0, err
		}
	}
	tableName = strings.TrimSpace(tableName)
	tableID := m.FindTable(tableName)
	if tableID < 0 {
		return 0, dmlError("DELETE: unbekannte Tabelle.")
	}

	deleted := 0
	for _, p := range effectiveRows(m, tableID) {
		if whereExpr != nil && !matchesWhere(whereExpr, p.Fields) {
			continue
		}
		m.Tombstone(p.TableID, p.ID)
		deleted++
	}
	return deleted, nil
}

// effectiveRows returns, for one table, each logical row's currently
// visible payload: the delta if one shadows it, else the base, skipping
// tombstoned keys. This mirrors the table-scan shadowing rule so UPDATE
// and DELETE see the same rows a SELECT would.
func effectiveRows(m Mutable, tableID int) []Payload {
	tombstones := m.Tombstones()
	deltas := m.DeltaIndex()
	byKey := map[int64]Payload{}
	var order []int64
	for _, p := range m.Payloads() {
		if p.TableID != tableID {
			continue
		}
		key := PayloadKey(p.TableID, p.ID)
		if _, dead := tombstones[key]; dead {
			continue
		}
		if !p.IsDelta {
			if _, shadowed := deltas[key]; shadowed {
				continue
			}
		}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = p
	}
	out := make([]Payload, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}

func indexKeyword(s, kw string) int {
	lower := strings.ToLower(s)
	return strings.Index(lower, kw)
}

func parseAssignments(s string) []Field {
	var fields []Field
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		fields = append(fields, Field{
			Name:  strings.TrimSpace(kv[0]),
			Value: value.StripQuotes(strings.TrimSpace(kv[1])),
		})
	}
	return fields
}

func mergeFields(base []Field, assignments []Field) []Field {
	out := make([]Field, len(base))
	copy(out, base)
	for _, a := range assignments {
		found := false
		for i, f := range out {
			if strings.EqualFold(f.Name, a.Name) {
				out[i].Value = a.Value
				found = true
				break
			}
		}
		if !found {
			out = append(out, a)
		}
	}
	return out
}

// matchesWhere evaluates a subset of the full query grammar (no
// subqueries or correlated lookups apply here) against one payload's
// fields, reusing sql/value's Cell comparison rules.
func matchesWhere(e *ast.Expr, fields []Field) bool {
	lookup := func(name string) value.Cell {
		for _, f := range fields {
			if strings.EqualFold(f.Name, name) {
				return value.MakeCell(f.Value, false)
			}
		}
		return value.Null
	}
	resolve := func(raw string) value.Cell {
		if raw == "" {
			return value.Null
		}
		if raw[0] == '\'' || raw[0] == '"' {
			return value.MakeCell(value.StripQuotes(raw), false)
		}
		if _, ok := value.ParseNumber(raw); ok {
			return value.MakeCell(raw, false)
		}
		return lookup(raw)
	}
	var eval func(e *ast.Expr) bool
	operand := func(e *ast.Expr) value.Cell {
		if e == nil {
			return value.Null
		}
		if e.Kind == ast.Value {
			return resolve(e.Value)
		}
		if eval(e) {
			return value.MakeCell("1", false)
		}
		return value.MakeCell("0", false)
	}
	eval = func(e *ast.Expr) bool {
		if e == nil {
			return true
		}
		switch e.Kind {
		case ast.And:
			return eval(e.Lhs) && eval(e.Rhs)
		case ast.Or:
			return eval(e.Lhs) || eval(e.Rhs)
		case ast.Not:
			return !eval(e.Lhs)
		case ast.Value:
			c := resolve(e.Value)
			return !value.IsNullish(c) && c.Text != "0"
		case ast.Compare:
			return value.CompareCells(operand(e.Lhs), operand(e.Rhs), e.Op)
		case ast.Between:
			a := operand(e.Lhs)
			lo := resolve(e.Value)
			hi := resolve(e.Value2)
			return value.Between(a, lo, hi)
		case ast.Like:
			a := operand(e.Lhs)
			return value.LikeMatch(a.Text, value.StripQuotes(e.Value))
		case ast.IsNull:
			isNull := value.IsNullish(operand(e.Lhs))
			if e.Negate {
				return !isNull
			}
			return isNull
		case ast.InList:
			a := operand(e.Lhs)
			for _, raw := range e.List {
				if raw == "," {
					continue
				}
				if value.CompareCells(a, resolve(raw), "=") {
					return true
				}
			}
			return false
		}
		return false
	}
	return eval(e)
}
