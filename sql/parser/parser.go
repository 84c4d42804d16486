// Package parser is a hand-written recursive-descent parser for the
// worldsql SELECT dialect. It never touches storage; ParseQuery returns an
// *ast.Query (or an error) given a raw SQL string.
package parser

import (
	"strconv"
	"strings"

	"github.com/kruemmel-python/worldsql/sql/ast"
	"github.com/kruemmel-python/worldsql/sql/lexer"
)

// ErrInvalidQuery is the exact user-facing message spec'd for any parse
// failure in the SELECT grammar.
const ErrInvalidQuery = "SQL-Parser: ungueltige Query."

type queryError string

func (e queryError) Error() string { return string(e) }

// cursor walks a token stream with lookahead-1, case-insensitive keyword
// matching and exact punctuation matching.
type cursor struct {
	tokens []lexer.Token
	pos    int
}

func (c *cursor) eof() bool { return c.pos >= len(c.tokens) }

func (c *cursor) peek() string {
	if c.eof() {
		return ""
	}
	return string(c.tokens[c.pos])
}

func ieq(a, b string) bool { return strings.EqualFold(a, b) }

// match consumes the current token if it case-insensitively equals kw.
func (c *cursor) match(kw string) bool {
	if !c.eof() && ieq(string(c.tokens[c.pos]), kw) {
		c.pos++
		return true
	}
	return false
}

// matchSymbol consumes the current token if it exactly equals sym.
func (c *cursor) matchSymbol(sym string) bool {
	if !c.eof() && string(c.tokens[c.pos]) == sym {
		c.pos++
		return true
	}
	return false
}

func (c *cursor) consume() string {
	if c.eof() {
		return ""
	}
	t := string(c.tokens[c.pos])
	c.pos++
	return t
}

func parseIdentifier(c *cursor) (string, bool) {
	if c.eof() {
		return "", false
	}
	t := c.consume()
	if t == "," || t == "(" || t == ")" || t == "*" {
		return "", false
	}
	return t, true
}

// isClauseKeyword reports whether t (case-insensitive) terminates an
// implicit-alias scan in whatever context it was found.
func isClauseKeyword(t string, kws ...string) bool {
	for _, kw := range kws {
		if ieq(t, kw) {
			return true
		}
	}
	return false
}

func parseSelectList(c *cursor) ([]ast.SelectItem, bool) {
	var out []ast.SelectItem
	for !c.eof() {
		var item ast.SelectItem
		t := c.peek()
		if t == "*" {
			c.consume()
			item.Kind = ast.Star
			item.Raw = "*"
			out = append(out, item)
		} else {
			name := c.consume()
			lower := strings.ToLower(name)
			switch {
			case lower == "case":
				expr := name
				depth := 0
				for !c.eof() {
					tok := c.consume()
					if ieq(tok, "case") {
						depth++
					}
					if ieq(tok, "end") {
						expr += " " + tok
						if depth == 0 {
							break
						}
						depth--
						continue
					}
					expr += " " + tok
				}
				item.Kind = ast.Func
				item.Raw = expr
				item.Column = expr
			case !c.eof() && c.peek() == "(":
				c.consume()
				var arglist strings.Builder
				depth := 1
				for !c.eof() && depth > 0 {
					tok := c.consume()
					if tok == "(" {
						depth++
					}
					if tok == ")" {
						depth--
						if depth == 0 {
							break
						}
					}
					if arglist.Len() > 0 {
						arglist.WriteByte(' ')
					}
					arglist.WriteString(tok)
				}
				args := arglist.String()
				item.Raw = lower + "(" + args + ")"
				switch lower {
				case "count", "sum", "avg", "min", "max":
					item.Kind = ast.Agg
					item.Func = lower
					if args == "" {
						item.Column = "*"
					} else {
						item.Column = args
					}
				default:
					item.Kind = ast.Func
					item.Column = item.Raw
				}
			default:
				item.Kind = ast.Column
				item.Column = name
				item.Raw = name
			}
			if c.match("as") {
				if alias, ok := parseIdentifier(c); ok {
					item.Alias = alias
				} else {
					return nil, false
				}
			} else if !c.eof() && c.peek() != "," && !ieq(c.peek(), "from") {
				if alias, ok := parseIdentifier(c); ok {
					item.Alias = alias
				}
			}
			out = append(out, item)
		}
		if c.matchSymbol(",") {
			continue
		}
		break
	}
	return out, len(out) > 0
}

func parseExpr(c *cursor) *ast.Expr { return parseOr(c) }

func parseOr(c *cursor) *ast.Expr {
	left := parseAnd(c)
	for c.match("or") {
		right := parseAnd(c)
		left = &ast.Expr{Kind: ast.Or, Lhs: left, Rhs: right}
	}
	return left
}

func parseAnd(c *cursor) *ast.Expr {
	left := parseCompare(c)
	for c.match("and") {
		right := parseCompare(c)
		left = &ast.Expr{Kind: ast.And, Lhs: left, Rhs: right}
	}
	return left
}

func parsePrimary(c *cursor) *ast.Expr {
	if c.matchSymbol("(") {
		inner := parseExpr(c)
		if !c.matchSymbol(")") {
			return nil
		}
		return inner
	}
	if c.match("exists") {
		if !c.matchSymbol("(") {
			return nil
		}
		sub := scanBalanced(c)
		return &ast.Expr{Kind: ast.Exists, Subquery: sub}
	}
	if c.match("not") {
		return &ast.Expr{Kind: ast.Not, Lhs: parsePrimary(c)}
	}
	if c.eof() {
		return nil
	}
	head := c.consume()
	if !c.eof() && c.peek() == "(" {
		c.consume()
		arglist := scanBalanced(c)
		return &ast.Expr{Kind: ast.Value, Value: strings.ToLower(head) + "(" + arglist + ")"}
	}
	return &ast.Expr{Kind: ast.Value, Value: head}
}

// scanBalanced consumes tokens up to (and including) the matching close
// paren, assuming the caller already consumed the opening "(". It returns
// the consumed tokens (excluding the closing paren) joined by single
// spaces.
func scanBalanced(c *cursor) string {
	var b strings.Builder
	depth := 1
	for !c.eof() && depth > 0 {
		t := c.consume()
		if t == "(" {
			depth++
		}
		if t == ")" {
			depth--
			if depth == 0 {
				break
			}
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String()
}

func parseCompare(c *cursor) *ast.Expr {
	left := parsePrimary(c)
	if left == nil {
		return nil
	}
	negated := c.match("not")

	if c.match("is") {
		isNot := c.match("not")
		if !c.match("null") {
			return nil
		}
		expr := &ast.Expr{Kind: ast.IsNull, Lhs: left, Negate: isNot}
		if negated {
			return &ast.Expr{Kind: ast.Not, Lhs: expr}
		}
		return expr
	}
	if c.match("between") {
		expr := &ast.Expr{Kind: ast.Between, Lhs: left, Value: c.consume()}
		if !c.match("and") {
			return nil
		}
		expr.Value2 = c.consume()
		if negated {
			return &ast.Expr{Kind: ast.Not, Lhs: expr}
		}
		return expr
	}
	if c.match("in") {
		if !c.matchSymbol("(") {
			return nil
		}
		if !c.eof() && (ieq(c.peek(), "select") || ieq(c.peek(), "with")) {
			sub := c.consume()
			depth := 1
			for !c.eof() && depth > 0 {
				t := c.consume()
				if t == "(" {
					depth++
				}
				if t == ")" {
					depth--
					if depth == 0 {
						break
					}
				}
				sub += " " + t
			}
			expr := &ast.Expr{Kind: ast.InSubquery, Lhs: left, Subquery: sub}
			if negated {
				return &ast.Expr{Kind: ast.Not, Lhs: expr}
			}
			return expr
		}
		expr := &ast.Expr{Kind: ast.InList, Lhs: left}
		for !c.eof() {
			expr.List = append(expr.List, c.consume())
			if c.matchSymbol(")") {
				break
			}
			if !c.matchSymbol(",") {
				return nil
			}
		}
		if negated {
			return &ast.Expr{Kind: ast.Not, Lhs: expr}
		}
		return expr
	}
	if c.match("like") {
		expr := &ast.Expr{Kind: ast.Like, Lhs: left, Value: c.consume()}
		if negated {
			return &ast.Expr{Kind: ast.Not, Lhs: expr}
		}
		return expr
	}
	if c.match("regexp") {
		expr := &ast.Expr{Kind: ast.Regexp, Lhs: left, Value: c.consume()}
		if negated {
			return &ast.Expr{Kind: ast.Not, Lhs: expr}
		}
		return expr
	}
	if c.eof() {
		return left
	}
	op := c.peek()
	switch op {
	case "=", "!=", "<>", "<", "<=", ">", ">=":
		c.consume()
		right := parsePrimary(c)
		if right == nil {
			return nil
		}
		expr := &ast.Expr{Kind: ast.Compare, Op: op, Lhs: left, Rhs: right}
		if negated {
			return &ast.Expr{Kind: ast.Not, Lhs: expr}
		}
		return expr
	}
	return left
}

// ParseExpr parses a standalone boolean expression, e.g. an UPDATE or
// DELETE statement's WHERE clause, using the same grammar as a SELECT's
// WHERE.
func ParseExpr(sql string) (*ast.Expr, error) {
	c := &cursor{tokens: lexer.Tokenize(sql)}
	expr := parseExpr(c)
	if expr == nil {
		return nil, queryError(ErrInvalidQuery)
	}
	return expr, nil
}

// ParseQuery parses a single SELECT statement (no WITH/UNION — those are
// handled by the composer before ParseQuery is ever called).
func ParseQuery(sql string) (*ast.Query, error) {
	c := &cursor{tokens: lexer.Tokenize(sql)}
	var q ast.Query
	q.Limit = -1

	if !c.match("select") {
		return nil, queryError(ErrInvalidQuery)
	}
	if c.match("distinct") {
		if c.match("on") {
			if !c.matchSymbol("(") {
				return nil, queryError(ErrInvalidQuery)
			}
			for !c.eof() {
				col := c.consume()
				if col == "" {
					return nil, queryError(ErrInvalidQuery)
				}
				q.DistinctOn = append(q.DistinctOn, col)
				if c.matchSymbol(",") {
					continue
				}
				if c.matchSymbol(")") {
					break
				}
				return nil, queryError(ErrInvalidQuery)
			}
		} else {
			q.Distinct = true
		}
	}
	items, ok := parseSelectList(c)
	if !ok {
		return nil, queryError(ErrInvalidQuery)
	}
	q.SelectItems = items

	if !c.match("from") {
		return nil, queryError(ErrInvalidQuery)
	}
	if c.matchSymbol("(") {
		q.FromSubquery = scanBalanced(c)
	} else {
		table, ok := parseIdentifier(c)
		if !ok {
			return nil, queryError(ErrInvalidQuery)
		}
		q.FromTable = table
	}
	if c.match("as") {
		if alias, ok := parseIdentifier(c); ok {
			q.FromAlias = alias
		}
	} else if !c.eof() && !isClauseKeyword(c.peek(), "join", "left", "where", "right", "cross", "inner",
		"group", "order", "limit", "offset", "having") {
		if alias, ok := parseIdentifier(c); ok {
			q.FromAlias = alias
		}
	}

joinLoop:
	for !c.eof() {
		var join ast.JoinClause
		switch {
		case c.match("left"):
			join.Kind = ast.Left
			if !c.match("join") {
				return nil, queryError(ErrInvalidQuery)
			}
		case c.match("right"):
			join.Kind = ast.Right
			if !c.match("join") {
				return nil, queryError(ErrInvalidQuery)
			}
		case c.match("cross"):
			join.Kind = ast.Cross
			if !c.match("join") {
				return nil, queryError(ErrInvalidQuery)
			}
		case c.match("join") || c.match("inner"):
			join.Kind = ast.Inner
			if ieq(c.peek(), "join") {
				c.consume()
			}
		default:
			break joinLoop
		}
		{
			table, ok := parseIdentifier(c)
			if !ok {
				return nil, queryError(ErrInvalidQuery)
			}
			join.Table = table
		}
		if c.match("as") {
			if alias, ok := parseIdentifier(c); ok {
				join.Alias = alias
			}
		} else if !c.eof() && !ieq(c.peek(), "on") {
			if alias, ok := parseIdentifier(c); ok {
				join.Alias = alias
			}
		}
		if join.Kind == ast.Cross {
			join.LeftCol = ""
			join.RightCol = ""
		} else {
			if !c.match("on") {
				return nil, queryError(ErrInvalidQuery)
			}
			left := c.consume()
			if !c.matchSymbol("=") {
				return nil, queryError(ErrInvalidQuery)
			}
			right := c.consume()
			join.LeftCol = left
			join.RightCol = right
		}
		q.Joins = append(q.Joins, join)
	}

	if c.match("where") {
		q.Where = parseExpr(c)
	}
	if c.match("group") {
		if !c.match("by") {
			return nil, queryError(ErrInvalidQuery)
		}
		for !c.eof() {
			q.GroupBy = append(q.GroupBy, c.consume())
			if c.matchSymbol(",") {
				continue
			}
			break
		}
	}
	if c.match("having") {
		q.Having = parseExpr(c)
	}
	if c.match("order") {
		if !c.match("by") {
			return nil, queryError(ErrInvalidQuery)
		}
		for !c.eof() {
			col := c.consume()
			ob := ast.OrderBy{Key: col, Asc: true}
			if c.match("asc") {
				ob.Asc = true
			} else if c.match("desc") {
				ob.Asc = false
			}
			if c.match("nulls") {
				if c.match("last") {
					ob.NullsLast = true
				} else if c.match("first") {
					ob.NullsLast = false
				} else {
					return nil, queryError(ErrInvalidQuery)
				}
			}
			q.OrderBy = append(q.OrderBy, ob)
			if c.matchSymbol(",") {
				continue
			}
			break
		}
	}
	if c.match("limit") {
		n, err := strconv.Atoi(c.consume())
		if err != nil {
			return nil, queryError(ErrInvalidQuery)
		}
		q.Limit = n
	}
	if c.match("offset") {
		n, err := strconv.Atoi(c.consume())
		if err != nil {
			return nil, queryError(ErrInvalidQuery)
		}
		q.Offset = n
	}
	return &q, nil
}
