package exec

import (
	"strconv"
	"strings"

	"github.com/kruemmel-python/worldsql/store"
)

// Execute is the engine's single synchronous entry point: it dispatches
// SET LIMIT / INSERT / UPDATE / DELETE to their handlers and routes
// everything else through the CTE/UNION composer.
func Execute(world store.World, sqlText string, useFocus bool, focusX, focusY, radius int) (ResultSet, error) {
	trimmed := strings.TrimSpace(sqlText)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "set limit"):
		return dispatchSetLimit(world, trimmed)
	case strings.HasPrefix(lower, "insert"):
		n, err := store.ApplyInsertSQL(world, trimmed)
		return rowsAffected(n, err)
	case strings.HasPrefix(lower, "update"):
		n, err := store.ApplyUpdateSQL(world, trimmed)
		return rowsAffected(n, err)
	case strings.HasPrefix(lower, "delete"):
		n, err := store.ApplyDeleteSQL(world, trimmed)
		return rowsAffected(n, err)
	}

	c := &ctx{world: world, useFocus: useFocus, focusX: focusX, focusY: focusY, radius: radius}
	return composeAndExecute(c, trimmed, nil)
}

func rowsAffected(n int, err error) (ResultSet, error) {
	if err != nil {
		return ResultSet{}, err
	}
	return ResultSet{Columns: []string{"rows_affected"}, Rows: [][]string{{strconv.Itoa(n)}}}, nil
}

func dispatchSetLimit(world store.World, trimmed string) (ResultSet, error) {
	fields := strings.Fields(trimmed)
	if len(fields) < 3 {
		return ResultSet{}, errf("SET: fehlender Wert.")
	}
	arg := fields[2]
	var n int
	if strings.EqualFold(arg, "off") {
		n = -1
	} else {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return ResultSet{}, errf("SET: ungueltiger Wert.")
		}
		n = v
	}
	world.SetDefaultLimit(n)
	return ResultSet{Columns: []string{"limit"}, Rows: [][]string{{strconv.Itoa(n)}}}, nil
}
