// Package validate offers pre-flight syntax sanity checks backed by real
// external SQL grammars, mirroring engine/validator/{postgres,mysql}.go
// from the donor project: parse with a full external grammar and surface
// whatever error it produces, without attempting to reuse its AST.
package validate

import (
	pg_query "github.com/pganalyze/pg_query_go/v5"
	"github.com/xwb1989/sqlparser"
)

// ValidateWrite parses sql as a PostgreSQL statement and returns the parse
// error, if any. It is advisory: the engine's own reference DML appliers
// accept a narrower grammar than full PostgreSQL, so callers should log a
// failure here rather than reject the statement outright.
func ValidateWrite(sql string) error {
	_, err := pg_query.Parse(sql)
	return err
}

// ValidateSelect parses sql with the MySQL-dialect vitess grammar and
// returns the parse error, if any, as an independent check that a query
// is recognizable SQL. The engine itself does not call it.
func ValidateSelect(sql string) error {
	_, err := sqlparser.Parse(sql)
	return err
}
