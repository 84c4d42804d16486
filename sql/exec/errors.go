package exec

// QueryError wraps one of the engine's fixed user-facing error messages
// verbatim, optionally wrapping an underlying cause for errors.As/Unwrap
// chains while keeping Error() pinned to the exact message string.
type QueryError struct {
	Message string
	Cause   error
}

func (e *QueryError) Error() string { return e.Message }
func (e *QueryError) Unwrap() error { return e.Cause }

func errf(message string) error {
	return &QueryError{Message: message}
}

const (
	errInvalidQuery    = "SQL-Parser: ungueltige Query."
	errStarWithGroupBy = "SELECT * ist mit GROUP BY nicht erlaubt."
	errAggWithoutGroup = "Aggregates ohne GROUP BY nicht erlaubt."
	errUnionColumns    = "UNION: Spaltenanzahl passt nicht."
	errBadRegexp       = "REGEXP-Pattern ungueltig."
	errCTEParse        = "CTE-Parser: ungueltige CTE-Syntax."
)
