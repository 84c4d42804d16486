package exec

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/kruemmel-python/worldsql/store"
)

func cityWorld() *store.MemWorld {
	w := store.NewMemWorld("city")
	cityID := w.FindTable("city")
	w.InsertBase(cityID, true, 0, 0, []store.Field{{Name: "id", Value: "1"}, {Name: "name", Value: "A"}, {Name: "pop", Value: "100"}})
	w.InsertBase(cityID, true, 5, 5, []store.Field{{Name: "id", Value: "2"}, {Name: "name", Value: "B"}, {Name: "pop", Value: "50"}})
	w.InsertBase(cityID, true, 50, 50, []store.Field{{Name: "id", Value: "3"}, {Name: "name", Value: "C"}, {Name: "pop", Value: "200"}})
	return w
}

func run(t *testing.T, w store.World, sql string) ResultSet {
	t.Helper()
	res, err := Execute(w, sql, false, 0, 0, 0)
	if err != nil {
		t.Fatalf("Execute(%q) error: %v", sql, err)
	}
	return res
}

func TestExecute_WhereOrderBy(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "SELECT name FROM city WHERE pop >= 100 ORDER BY pop DESC")
	want := [][]string{{"C"}, {"A"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_CountSum(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "SELECT COUNT(*), SUM(pop) FROM city")
	if len(res.Rows) != 1 || res.Rows[0][0] != "3" {
		t.Fatalf("rows = %v, want count 3", res.Rows)
	}
	sum, err := strconv.ParseFloat(res.Rows[0][1], 64)
	if err != nil || sum != 350 {
		t.Fatalf("sum = %q, want 350", res.Rows[0][1])
	}
}

func TestExecute_Like(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "SELECT name FROM city WHERE name LIKE 'A%'")
	want := [][]string{{"A"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_InSubquery(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "SELECT name FROM city WHERE pop IN (SELECT pop FROM city WHERE pop > 150)")
	want := [][]string{{"C"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_CTE(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "WITH big AS (SELECT * FROM city WHERE pop >= 100) SELECT COUNT(*) FROM big")
	want := [][]string{{"2"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_JoinGroupByHaving(t *testing.T) {
	w := store.NewMemWorld("emp", "dept")
	empID := w.FindTable("emp")
	deptID := w.FindTable("dept")
	w.InsertBase(deptID, false, 0, 0, []store.Field{{Name: "id", Value: "1"}, {Name: "name", Value: "eng"}})
	w.InsertBase(deptID, false, 0, 0, []store.Field{{Name: "id", Value: "2"}, {Name: "name", Value: "sales"}})
	w.InsertBase(empID, false, 0, 0, []store.Field{{Name: "id", Value: "1"}, {Name: "dept_id", Value: "1"}})
	w.InsertBase(empID, false, 0, 0, []store.Field{{Name: "id", Value: "2"}, {Name: "dept_id", Value: "1"}})
	w.InsertBase(empID, false, 0, 0, []store.Field{{Name: "id", Value: "3"}, {Name: "dept_id", Value: "2"}})

	res := run(t, w, "SELECT dept.name, COUNT(*) FROM emp JOIN dept ON emp.dept_id = dept.id GROUP BY dept.name HAVING COUNT(*) > 1")
	want := [][]string{{"eng", "2"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_LeftJoinSumHaving(t *testing.T) {
	w := store.NewMemWorld("a", "b")
	aID := w.FindTable("a")
	bID := w.FindTable("b")
	w.InsertBase(aID, false, 0, 0, []store.Field{{Name: "id", Value: "1"}, {Name: "grp", Value: "x"}})
	w.InsertBase(aID, false, 0, 0, []store.Field{{Name: "id", Value: "2"}, {Name: "grp", Value: "y"}})
	w.InsertBase(bID, false, 0, 0, []store.Field{{Name: "id", Value: "1"}, {Name: "val", Value: "6"}})
	w.InsertBase(bID, false, 0, 0, []store.Field{{Name: "id", Value: "1"}, {Name: "val", Value: "7"}})
	w.InsertBase(bID, false, 0, 0, []store.Field{{Name: "id", Value: "2"}, {Name: "val", Value: "3"}})

	res := run(t, w, "SELECT a.grp, SUM(b.val) FROM a LEFT JOIN b ON a.id = b.id GROUP BY a.grp HAVING SUM(b.val) > 10 ORDER BY a.grp")
	if len(res.Rows) != 1 || res.Rows[0][0] != "x" {
		t.Fatalf("rows = %v, want one row for grp x", res.Rows)
	}
	sum, err := strconv.ParseFloat(res.Rows[0][1], 64)
	if err != nil || sum != 13 {
		t.Fatalf("sum = %q, want 13", res.Rows[0][1])
	}
}

func TestExecute_SelectStarWithGroupByErrors(t *testing.T) {
	w := cityWorld()
	_, err := Execute(w, "SELECT * FROM city GROUP BY name", false, 0, 0, 0)
	if err == nil {
		t.Fatal("expected an error for SELECT * with GROUP BY")
	}
	if err.Error() != errStarWithGroupBy {
		t.Fatalf("error = %q, want %q", err.Error(), errStarWithGroupBy)
	}
}

func TestExecute_AggregateWithoutGroupByErrors(t *testing.T) {
	w := cityWorld()
	_, err := Execute(w, "SELECT name, COUNT(*) FROM city", false, 0, 0, 0)
	if err == nil {
		t.Fatal("expected an error for an aggregate mixed with a non-aggregate column")
	}
	if err.Error() != errAggWithoutGroup {
		t.Fatalf("error = %q, want %q", err.Error(), errAggWithoutGroup)
	}
}

func TestExecute_FocusFilter(t *testing.T) {
	w := cityWorld()
	res, err := Execute(w, "SELECT name FROM city ORDER BY name", true, 0, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"A"}, {"B"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_DeltaShadowsBase(t *testing.T) {
	w := cityWorld()
	cityID := w.FindTable("city")
	w.ApplyDelta(cityID, 1, []store.Field{{Name: "id", Value: "1"}, {Name: "name", Value: "A2"}, {Name: "pop", Value: "101"}})
	res := run(t, w, "SELECT name FROM city WHERE id = 1")
	want := [][]string{{"A2"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_TombstoneHidesRow(t *testing.T) {
	w := cityWorld()
	cityID := w.FindTable("city")
	w.Tombstone(cityID, 2)
	res := run(t, w, "SELECT name FROM city ORDER BY name")
	want := [][]string{{"A"}, {"C"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_SetLimit(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "SET LIMIT 1")
	want := [][]string{{"1"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
	res = run(t, w, "SELECT name FROM city ORDER BY name")
	if len(res.Rows) != 1 {
		t.Fatalf("expected default limit of 1 row, got %d", len(res.Rows))
	}
}

func TestExecute_InsertUpdateDelete(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "INSERT INTO city (id, name, pop) VALUES (4, 'D', 10)")
	if res.Rows[0][0] != "1" {
		t.Fatalf("insert rows_affected = %v", res.Rows)
	}
	res = run(t, w, "UPDATE city SET pop = 999 WHERE name = 'D'")
	if res.Rows[0][0] != "1" {
		t.Fatalf("update rows_affected = %v", res.Rows)
	}
	res = run(t, w, "SELECT pop FROM city WHERE name = 'D'")
	if res.Rows[0][0] != "999" {
		t.Fatalf("pop after update = %v", res.Rows)
	}
	res = run(t, w, "DELETE FROM city WHERE name = 'D'")
	if res.Rows[0][0] != "1" {
		t.Fatalf("delete rows_affected = %v", res.Rows)
	}
	res = run(t, w, "SELECT pop FROM city WHERE name = 'D'")
	if len(res.Rows) != 0 {
		t.Fatalf("expected row to be gone after delete, got %v", res.Rows)
	}
}

func TestExecute_UnionDedup(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "SELECT name FROM city WHERE pop = 100 UNION SELECT name FROM city WHERE pop = 100")
	want := [][]string{{"A"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_UnionAllKeepsDuplicates(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "SELECT name FROM city WHERE pop = 100 UNION ALL SELECT name FROM city WHERE pop = 100")
	want := [][]string{{"A"}, {"A"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_ExistsSubquery(t *testing.T) {
	w := cityWorld()
	res := run(t, w, "SELECT name FROM city c WHERE EXISTS (SELECT 1 FROM city WHERE pop > c.pop)")
	want := [][]string{{"A"}, {"B"}}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Fatalf("rows = %v, want %v", res.Rows, want)
	}
}

func TestExecute_InvalidRegexpErrors(t *testing.T) {
	w := cityWorld()
	_, err := Execute(w, "SELECT name FROM city WHERE name REGEXP '('", false, 0, 0, 0)
	if err == nil || err.Error() != errBadRegexp {
		t.Fatalf("error = %v, want %q", err, errBadRegexp)
	}
}

func TestExecute_UnionColumnMismatchErrors(t *testing.T) {
	w := cityWorld()
	_, err := Execute(w, "SELECT name FROM city UNION SELECT name, pop FROM city", false, 0, 0, 0)
	if err == nil || err.Error() != errUnionColumns {
		t.Fatalf("error = %v, want %q", err, errUnionColumns)
	}
}
