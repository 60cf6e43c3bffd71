package sqlxrepos

import (
	sq "github.com/Masterminds/squirrel"
)

// psql builds queries with Postgres $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
