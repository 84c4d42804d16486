package parser

import (
	"testing"

	"github.com/kruemmel-python/worldsql/sql/ast"
)

func TestParseQuery_Basic(t *testing.T) {
	q, err := ParseQuery("SELECT name FROM city WHERE pop >= 100 ORDER BY pop DESC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.SelectItems) != 1 || q.SelectItems[0].Kind != ast.Column || q.SelectItems[0].Column != "name" {
		t.Fatalf("select items = %+v", q.SelectItems)
	}
	if q.FromTable != "city" {
		t.Fatalf("from table = %q", q.FromTable)
	}
	if q.Where == nil || q.Where.Kind != ast.Compare || q.Where.Op != ">=" {
		t.Fatalf("where = %+v", q.Where)
	}
	if len(q.OrderBy) != 1 || q.OrderBy[0].Key != "pop" || q.OrderBy[0].Asc {
		t.Fatalf("order by = %+v", q.OrderBy)
	}
}

func TestParseQuery_Star(t *testing.T) {
	q, err := ParseQuery("SELECT * FROM city")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.SelectItems) != 1 || q.SelectItems[0].Kind != ast.Star {
		t.Fatalf("select items = %+v", q.SelectItems)
	}
}

func TestParseQuery_Aggregates(t *testing.T) {
	q, err := ParseQuery("SELECT COUNT(*), SUM(pop) FROM city")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.SelectItems) != 2 {
		t.Fatalf("select items = %+v", q.SelectItems)
	}
	if q.SelectItems[0].Kind != ast.Agg || q.SelectItems[0].Func != "count" || q.SelectItems[0].Column != "*" {
		t.Fatalf("count item = %+v", q.SelectItems[0])
	}
	if q.SelectItems[1].Kind != ast.Agg || q.SelectItems[1].Func != "sum" || q.SelectItems[1].Column != "pop" {
		t.Fatalf("sum item = %+v", q.SelectItems[1])
	}
}

func TestParseQuery_JoinKinds(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want ast.JoinKind
	}{
		{"inner", "SELECT * FROM a JOIN b ON a.id = b.id", ast.Inner},
		{"inner keyword", "SELECT * FROM a INNER JOIN b ON a.id = b.id", ast.Inner},
		{"left", "SELECT * FROM a LEFT JOIN b ON a.id = b.id", ast.Left},
		{"right", "SELECT * FROM a RIGHT JOIN b ON a.id = b.id", ast.Right},
		{"cross", "SELECT * FROM a CROSS JOIN b", ast.Cross},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery(tt.sql)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(q.Joins) != 1 || q.Joins[0].Kind != tt.want {
				t.Fatalf("joins = %+v", q.Joins)
			}
		})
	}
}

func TestParseQuery_GroupByHaving(t *testing.T) {
	q, err := ParseQuery("SELECT dept, COUNT(*) FROM emp GROUP BY dept HAVING COUNT(*) > 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.GroupBy) != 1 || q.GroupBy[0] != "dept" {
		t.Fatalf("group by = %+v", q.GroupBy)
	}
	if q.Having == nil || q.Having.Kind != ast.Compare || q.Having.Op != ">" {
		t.Fatalf("having = %+v", q.Having)
	}
}

func TestParseQuery_DistinctOn(t *testing.T) {
	q, err := ParseQuery("SELECT DISTINCT ON (dept) name FROM emp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.DistinctOn) != 1 || q.DistinctOn[0] != "dept" {
		t.Fatalf("distinct on = %+v", q.DistinctOn)
	}
}

func TestParseQuery_LimitOffset(t *testing.T) {
	q, err := ParseQuery("SELECT * FROM city LIMIT 5 OFFSET 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit != 5 || q.Offset != 2 {
		t.Fatalf("limit/offset = %d/%d", q.Limit, q.Offset)
	}
}

func TestParseQuery_WhereVariants(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		kind ast.ExprKind
	}{
		{"between", "SELECT * FROM city WHERE pop BETWEEN 10 AND 20", ast.Between},
		{"like", "SELECT * FROM city WHERE name LIKE 'A%'", ast.Like},
		{"is null", "SELECT * FROM city WHERE name IS NULL", ast.IsNull},
		{"in list", "SELECT * FROM city WHERE id IN (1,2,3)", ast.InList},
		{"in subquery", "SELECT * FROM city WHERE id IN (SELECT id FROM other)", ast.InSubquery},
		{"exists", "SELECT * FROM city WHERE EXISTS (SELECT 1 FROM other)", ast.Exists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery(tt.sql)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Where == nil || q.Where.Kind != tt.kind {
				t.Fatalf("where = %+v", q.Where)
			}
		})
	}
}

func TestParseQuery_NegatedVariants(t *testing.T) {
	q, err := ParseQuery("SELECT * FROM city WHERE name NOT LIKE 'A%'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Where == nil || q.Where.Kind != ast.Not {
		t.Fatalf("where = %+v", q.Where)
	}
	if q.Where.Lhs == nil || q.Where.Lhs.Kind != ast.Like {
		t.Fatalf("negated lhs = %+v", q.Where.Lhs)
	}
}

func TestParseQuery_Errors(t *testing.T) {
	tests := []string{
		"",
		"SELECT FROM city",
		"SELECT * city",
		"SELECT * FROM city LIMIT abc",
	}
	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			if _, err := ParseQuery(sql); err == nil {
				t.Fatalf("expected error for %q", sql)
			}
		})
	}
}

func TestParseExpr(t *testing.T) {
	expr, err := ParseExpr("pop >= 100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Kind != ast.Compare || expr.Op != ">=" {
		t.Fatalf("expr = %+v", expr)
	}
}

func TestParseExpr_Error(t *testing.T) {
	if _, err := ParseExpr(""); err == nil {
		t.Fatal("expected error for empty expression")
	}
}
