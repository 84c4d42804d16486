package exec

import (
	"strings"

	"github.com/kruemmel-python/worldsql/sql/lexer"
	"github.com/kruemmel-python/worldsql/sql/parser"
)

func tokensToStrings(tokens []lexer.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = string(t)
	}
	return out
}

func joinTokens(tokens []lexer.Token) string {
	return strings.Join(tokensToStrings(tokens), " ")
}

// composeAndExecute peels off a leading WITH clause into the CTE map,
// then hands the remaining text to the UNION splitter. Used for
// top-level queries, FROM-clause subqueries, and correlated EXISTS/IN
// subqueries alike.
func composeAndExecute(c *ctx, sqlText string, outer *Row) (ResultSet, error) {
	tokens := lexer.Tokenize(sqlText)
	if len(tokens) == 0 {
		return ResultSet{}, errf(errInvalidQuery)
	}

	cteMap := map[string]ResultSet{}
	pos := 0
	if strings.EqualFold(string(tokens[0]), "with") {
		pos++
		for {
			if pos >= len(tokens) {
				return ResultSet{}, errf(errCTEParse)
			}
			name := string(tokens[pos])
			pos++
			if pos >= len(tokens) || !strings.EqualFold(string(tokens[pos]), "as") {
				return ResultSet{}, errf(errCTEParse)
			}
			pos++
			if pos >= len(tokens) || string(tokens[pos]) != "(" {
				return ResultSet{}, errf(errCTEParse)
			}
			pos++
			start := pos
			depth := 1
			closed := false
			for pos < len(tokens) && depth > 0 {
				switch string(tokens[pos]) {
				case "(":
					depth++
				case ")":
					depth--
					if depth == 0 {
						closed = true
					}
				}
				if closed {
					break
				}
				pos++
			}
			if !closed {
				return ResultSet{}, errf(errCTEParse)
			}
			bodyText := joinTokens(tokens[start:pos])
			pos++ // consume the closing ")"

			res, err := composeAndExecute(c.withCTEs(cteMap), bodyText, outer)
			if err != nil {
				return ResultSet{}, err
			}
			cteMap[strings.ToLower(name)] = res

			if pos < len(tokens) && string(tokens[pos]) == "," {
				pos++
				continue
			}
			break
		}
	}

	remaining := joinTokens(tokens[pos:])
	innerCtx := c.withCTEs(cteMap)
	return executeUnion(innerCtx, remaining, outer)
}

type unionPart struct {
	tokens    []lexer.Token
	allBefore bool
}

// splitUnionTokens scans at paren depth 0 for UNION [ALL] separators.
func splitUnionTokens(tokens []lexer.Token) []unionPart {
	var parts []unionPart
	depth := 0
	start := 0
	curAllBefore := false
	i := 0
	for i < len(tokens) {
		t := string(tokens[i])
		switch {
		case t == "(":
			depth++
		case t == ")":
			depth--
		case depth == 0 && strings.EqualFold(t, "union"):
			parts = append(parts, unionPart{tokens: tokens[start:i], allBefore: curAllBefore})
			i++
			all := false
			if i < len(tokens) && strings.EqualFold(string(tokens[i]), "all") {
				all = true
				i++
			}
			start = i
			curAllBefore = all
			continue
		}
		i++
	}
	parts = append(parts, unionPart{tokens: tokens[start:], allBefore: curAllBefore})
	return parts
}

// executeUnion runs each UNION part and stitches the results together.
// After appending part i, it dedupes all rows accumulated so far when the
// separator directly before part i is a plain UNION (part.allBefore is
// false); a UNION ALL separator leaves the accumulated rows as they are.
func executeUnion(c *ctx, sqlText string, outer *Row) (ResultSet, error) {
	tokens := lexer.Tokenize(sqlText)
	parts := splitUnionTokens(tokens)

	var acc ResultSet
	for i, part := range parts {
		q, err := parser.ParseQuery(joinTokens(part.tokens))
		if err != nil {
			return ResultSet{}, err
		}
		res, err := executeQuery(c, q, outer)
		if err != nil {
			return ResultSet{}, err
		}
		if i == 0 {
			acc = res
			continue
		}
		if len(acc.Columns) != len(res.Columns) {
			return ResultSet{}, errf(errUnionColumns)
		}
		acc.Rows = append(acc.Rows, res.Rows...)
		if !part.allBefore {
			acc = dedupeResultSet(acc)
		}
	}
	return acc, nil
}

func dedupeResultSet(res ResultSet) ResultSet {
	seen := map[string]bool{}
	out := ResultSet{Columns: res.Columns}
	for _, r := range res.Rows {
		k := strings.Join(r, "\x1f")
		if seen[k] {
			continue
		}
		seen[k] = true
		out.Rows = append(out.Rows, r)
	}
	return out
}

// runCorrelatedSelect evaluates a raw subquery text (EXISTS / IN
// subquery, or a scalar subquery) with row threaded in as the outer row
// fallback for correlated lookups.
func runCorrelatedSelect(c *ctx, sqlText string, row Row) (ResultSet, error) {
	return composeAndExecute(c, sqlText, &row)
}
