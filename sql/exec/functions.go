package exec

import (
	"strconv"
	"strings"

	"github.com/kruemmel-python/worldsql/sql/lexer"
	"github.com/kruemmel-python/worldsql/sql/value"
)

// splitArgs splits a top-level-comma-separated argument string, respecting
// single/double-quoted spans, and trims whitespace off each piece.
func splitArgs(s string) []string {
	var args []string
	var cur strings.Builder
	inString := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c == '\'' || c == '"') && (!inString || c == quote) {
			if inString && c == quote {
				inString = false
			} else if !inString {
				inString = true
				quote = c
			}
		}
		if !inString && c == ',' {
			args = append(args, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	if cur.Len() > 0 {
		args = append(args, cur.String())
	}
	for i, a := range args {
		args[i] = strings.TrimSpace(a)
	}
	return args
}

// splitFuncCall splits "name(args)" into the lowercased function name and
// the raw argument string (first '(' to last ')').
func splitFuncCall(raw string) (name, argsStr string, ok bool) {
	open := strings.Index(raw, "(")
	close := strings.LastIndex(raw, ")")
	if open < 0 || close < 0 || close <= open {
		return "", "", false
	}
	return strings.ToLower(raw[:open]), raw[open+1 : close], true
}

// evalArg evaluates one scalar-function argument: a quoted literal, a
// numeric literal, a nested function call, or a row/outer-row lookup.
func evalArg(a string, row Row, outer *Row) value.Cell {
	if a != "" && (a[0] == '\'' || a[0] == '"') {
		return value.MakeCell(value.StripQuotes(a), false)
	}
	if _, ok := value.ParseNumber(a); ok {
		return value.MakeCell(a, false)
	}
	if strings.Contains(a, "(") && strings.HasSuffix(a, ")") {
		return evalFunction(a, row, outer)
	}
	return get(row, outer, a)
}

// evalFunction evaluates a scalar function call given its raw
// "name(args)" text.
func evalFunction(raw string, row Row, outer *Row) value.Cell {
	fname, argsStr, ok := splitFuncCall(raw)
	if !ok {
		return value.Null
	}
	args := splitArgs(argsStr)

	switch fname {
	case "coalesce":
		for _, a := range args {
			c := evalArg(a, row, outer)
			if !c.IsNull && c.Text != "" {
				return c
			}
		}
		return value.Null
	case "ifnull":
		if len(args) < 2 {
			return value.Null
		}
		c := evalArg(args[0], row, outer)
		if !c.IsNull && c.Text != "" {
			return c
		}
		return evalArg(args[1], row, outer)
	case "nullif":
		if len(args) < 2 {
			return value.Null
		}
		a := evalArg(args[0], row, outer)
		b := evalArg(args[1], row, outer)
		if a.Text == b.Text {
			return value.Null
		}
		return a
	case "to_int":
		if len(args) == 0 {
			return value.Null
		}
		c := evalArg(args[0], row, outer)
		n, ok := value.ParseNumber(c.Text)
		if !ok {
			return value.Null
		}
		return value.MakeCell(strconv.Itoa(int(n)), false)
	case "to_float":
		if len(args) == 0 {
			return value.Null
		}
		c := evalArg(args[0], row, outer)
		n, ok := value.ParseNumber(c.Text)
		if !ok {
			return value.Null
		}
		return value.MakeCell(formatDouble(n), false)
	case "cast":
		return evalCast(argsStr, row, outer)
	case "lower":
		if len(args) == 0 {
			return value.Null
		}
		c := evalArg(args[0], row, outer)
		return value.MakeCell(strings.ToLower(c.Text), false)
	case "upper":
		if len(args) == 0 {
			return value.Null
		}
		c := evalArg(args[0], row, outer)
		return value.MakeCell(strings.ToUpper(c.Text), false)
	case "length":
		if len(args) == 0 {
			return value.Null
		}
		c := evalArg(args[0], row, outer)
		return value.MakeCell(strconv.Itoa(len(c.Text)), false)
	case "concat":
		var b strings.Builder
		for _, a := range args {
			b.WriteString(evalArg(a, row, outer).Text)
		}
		return value.MakeCell(b.String(), false)
	case "substring", "substr":
		return evalSubstring(args, row, outer)
	}
	return value.Null
}

func evalCast(argsStr string, row Row, outer *Row) value.Cell {
	lower := strings.ToLower(argsStr)
	asPos := strings.Index(lower, " as ")
	if asPos < 0 {
		return value.Null
	}
	left := strings.TrimSpace(argsStr[:asPos])
	typ := strings.TrimSpace(lower[asPos+4:])
	c := evalArg(left, row, outer)
	switch typ {
	case "int", "integer":
		n, ok := value.ParseNumber(c.Text)
		if !ok {
			return value.Null
		}
		return value.MakeCell(strconv.Itoa(int(n)), false)
	case "float", "real", "double":
		n, ok := value.ParseNumber(c.Text)
		if !ok {
			return value.Null
		}
		return value.MakeCell(formatDouble(n), false)
	}
	return value.MakeCell(c.Text, c.IsNull)
}

func evalSubstring(args []string, row Row, outer *Row) value.Cell {
	if len(args) < 2 {
		return value.Null
	}
	base := evalArg(args[0], row, outer)
	start := 1
	length := -1
	if args[1] != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(args[1])); err == nil {
			start = n
		}
	}
	if len(args) >= 3 {
		if n, err := strconv.Atoi(strings.TrimSpace(args[2])); err == nil {
			length = n
		}
	}
	if start < 1 {
		start = 1
	}
	pos := start - 1
	if pos >= len(base.Text) {
		return value.MakeCell("", false)
	}
	if length < 0 {
		return value.MakeCell(base.Text[pos:], false)
	}
	end := pos + length
	if end > len(base.Text) {
		end = len(base.Text)
	}
	return value.MakeCell(base.Text[pos:end], false)
}

// formatDouble matches C++'s std::to_string(double) default formatting:
// fixed notation with six fractional digits.
func formatDouble(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// evalCaseCondition evaluates the three-or-so tokens between WHEN and
// THEN: either "lhs IS [NOT] NULL" or "lhs op rhs".
func evalCaseCondition(tokens []lexer.Token, row Row, outer *Row) bool {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = string(t)
	}
	if len(parts) == 0 {
		return false
	}
	if len(parts) >= 3 && strings.EqualFold(parts[1], "is") {
		idx := 2
		isNot := false
		if idx < len(parts) && strings.EqualFold(parts[idx], "not") {
			isNot = true
			idx++
		}
		if idx < len(parts) && strings.EqualFold(parts[idx], "null") {
			c := get(row, outer, parts[0])
			if isNot {
				return !value.IsNullish(c)
			}
			return value.IsNullish(c)
		}
	}
	if len(parts) < 3 {
		return false
	}
	lhs, op, rhs := parts[0], strings.ToLower(parts[1]), parts[2]
	a := get(row, outer, lhs)
	var b value.Cell
	if rhs != "" && (rhs[0] == '\'' || rhs[0] == '"') {
		b = value.MakeCell(value.StripQuotes(rhs), false)
	} else {
		b = get(row, outer, rhs)
		if b.IsNull {
			b = value.MakeCell(rhs, false)
		}
	}
	switch op {
	case "=":
		return a.Text == b.Text
	case "!=", "<>":
		return a.Text != b.Text
	case "like":
		return value.LikeMatch(a.Text, b.Text)
	case "regexp":
		ok, _ := regexpSearch(a.Text, b.Text)
		return ok
	}
	aNum, bNum := a.HasNumber, b.HasNumber
	na, nb := a.Number, b.Number
	if !aNum {
		na, aNum = value.ParseNumber(a.Text)
	}
	if !bNum {
		nb, bNum = value.ParseNumber(b.Text)
	}
	if aNum && bNum {
		switch op {
		case "<":
			return na < nb
		case "<=":
			return na <= nb
		case ">":
			return na > nb
		case ">=":
			return na >= nb
		}
	}
	switch op {
	case "<":
		return a.Text < b.Text
	case "<=":
		return a.Text <= b.Text
	case ">":
		return a.Text > b.Text
	case ">=":
		return a.Text >= b.Text
	}
	return false
}

// evalCaseExpr re-tokenizes raw CASE...END text and walks WHEN/THEN
// branches, returning the first true branch's value, ELSE's value, or
// null.
func evalCaseExpr(raw string, row Row, outer *Row) value.Cell {
	tokens := lexer.Tokenize(raw)
	pos := 0
	eof := func() bool { return pos >= len(tokens) }
	peekIs := func(kw string) bool { return !eof() && strings.EqualFold(string(tokens[pos]), kw) }
	match := func(kw string) bool {
		if peekIs(kw) {
			pos++
			return true
		}
		return false
	}

	if !match("case") {
		return value.Null
	}
	for !eof() {
		switch {
		case match("when"):
			condStart := pos
			for !eof() && !peekIs("then") {
				pos++
			}
			condEnd := pos
			if !match("then") {
				return value.Null
			}
			valStart := pos
			for !eof() && !peekIs("when") && !peekIs("else") && !peekIs("end") {
				pos++
			}
			valEnd := pos
			if evalCaseCondition(tokens[condStart:condEnd], row, outer) {
				return resolveCaseValue(tokens[valStart:valEnd], row, outer)
			}
		case match("else"):
			start := pos
			for !eof() && !peekIs("end") {
				pos++
			}
			return resolveCaseValue(tokens[start:pos], row, outer)
		case match("end"):
			return value.Null
		default:
			pos++
		}
	}
	return value.Null
}

func resolveCaseValue(tokens []lexer.Token, row Row, outer *Row) value.Cell {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = string(t)
	}
	val := strings.Join(parts, " ")
	if val == "" {
		return value.Null
	}
	if val[0] == '\'' || val[0] == '"' {
		return value.MakeCell(value.StripQuotes(val), false)
	}
	if strings.Contains(val, "(") && strings.HasSuffix(val, ")") {
		return evalFunction(val, row, outer)
	}
	c := get(row, outer, val)
	if !c.IsNull {
		return c
	}
	return value.MakeCell(val, false)
}
