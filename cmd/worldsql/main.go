// Command worldsql is a line-oriented REPL over a demo in-memory World:
// the reference host for the query engine's external interface.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kruemmel-python/worldsql/schema"
	"github.com/kruemmel-python/worldsql/sql/exec"
	"github.com/kruemmel-python/worldsql/store"
)

var log *zap.SugaredLogger

func main() {
	focusX := flag.Int("focus-x", 0, "focus center x")
	focusY := flag.Int("focus-y", 0, "focus center y")
	radius := flag.Int("radius", 0, "focus radius")
	useFocus := flag.Bool("focus", false, "enable the circular focus filter")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "worldsql: logger init failed:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log = logger.Sugar()

	world := seedDemoWorld()
	log.Infow("worldsql starting", "tables", world.TableNames())

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("worldsql> ready. one statement per line, blank line or Ctrl-D to quit.")
	for {
		fmt.Print("worldsql> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		runStatement(world, line, *useFocus, *focusX, *focusY, *radius)
	}
	log.Info("worldsql shutting down")
}

func runStatement(world store.World, line string, useFocus bool, fx, fy, r int) {
	res, err := exec.Execute(world, line, useFocus, fx, fy, r)
	if err != nil {
		if tableName, ok := extractUnknownTable(line); ok {
			if suggestion, ok := schema.SuggestTable(world, tableName); ok {
				fmt.Printf("error: %v (did you mean %q?)\n", err, suggestion)
				return
			}
		}
		fmt.Println("error:", err)
		return
	}
	printTable(res.Columns, res.Rows)
}

// extractUnknownTable is a best-effort guess at the table name in a
// FROM/INTO/UPDATE clause, used only to offer a schema.SuggestTable hint
// on error; it is not part of the engine's own parsing.
func extractUnknownTable(line string) (string, bool) {
	fields := strings.Fields(line)
	for i, f := range fields {
		lower := strings.ToLower(f)
		if (lower == "from" || lower == "into" || lower == "update") && i+1 < len(fields) {
			return fields[i+1], true
		}
	}
	return "", false
}

func printTable(columns []string, rows [][]string) {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	for i, c := range columns {
		fmt.Printf("%-*s  ", widths[i], c)
	}
	fmt.Println()
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Printf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Println()
	}
	fmt.Printf("(%d rows)\n", len(rows))
}

func seedDemoWorld() *store.MemWorld {
	w := store.NewMemWorld("city", "country")
	cityID := w.FindTable("city")
	w.InsertBase(cityID, true, 0, 0, []store.Field{{Name: "id", Value: "1"}, {Name: "name", Value: "A"}, {Name: "pop", Value: "100"}})
	w.InsertBase(cityID, true, 5, 5, []store.Field{{Name: "id", Value: "2"}, {Name: "name", Value: "B"}, {Name: "pop", Value: "50"}})
	w.InsertBase(cityID, true, 50, 50, []store.Field{{Name: "id", Value: "3"}, {Name: "name", Value: "C"}, {Name: "pop", Value: "200"}})
	return w
}
