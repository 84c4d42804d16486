package exec

import "github.com/kruemmel-python/worldsql/store"

// ctx threads the pieces a nested evaluation needs without reopening the
// top-level Execute call: the backing World, the active focus-filter
// window, and the CTE name -> materialized ResultSet map visible to
// subqueries at the current nesting level.
type ctx struct {
	world    store.World
	useFocus bool
	focusX   int
	focusY   int
	radius   int
	ctes     map[string]ResultSet
}

func (c *ctx) withCTEs(extra map[string]ResultSet) *ctx {
	merged := make(map[string]ResultSet, len(c.ctes)+len(extra))
	for k, v := range c.ctes {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return &ctx{world: c.world, useFocus: c.useFocus, focusX: c.focusX, focusY: c.focusY, radius: c.radius, ctes: merged}
}
