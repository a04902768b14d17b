package query

import "errors"

// ErrInvalidFilter is returned for filters that cannot be evaluated,
// such as an inverted time range or a negative day count. Queries fail
// whole; a partial series is never returned.
var ErrInvalidFilter = errors.New("query: invalid filter")
