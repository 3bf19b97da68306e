package report

import "strings"

// Dialect renders the SQL constructs that differ between databases.
type Dialect interface {
	Name() string
	// Match renders a pattern filter on expr.
	Match(expr string, mode FilterMode, value string) (string, []any)
	// Truncate renders expr cut down to granularity g, as text.
	Truncate(expr string, g Granularity) string
}

// DialectFor returns the dialect of a store driver. PostgreSQL is the
// default.
func DialectFor(driver string) Dialect {
	if driver == "sqlite" {
		return sqliteDialect{}
	}

	return postgresDialect{}
}

// postgresDialect matches with POSIX regular expressions, so filter values
// are patterns.
type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Match(expr string, mode FilterMode, value string) (string, []any) {
	switch mode {
	case ModeNotContains:
		return expr + " !~ ?", []any{value}
	case ModeBeginsWith:
		return expr + " ~ ?", []any{"^" + value}
	case ModeEndsWith:
		return expr + " ~ ?", []any{value + "$"}
	default:
		return expr + " ~ ?", []any{value}
	}
}

var postgresFormats = map[Granularity]string{
	GranularityMonth:  "YYYY-MM",
	GranularityDay:    "YYYY-MM-DD",
	GranularityHour:   "YYYY-MM-DD HH24:00",
	GranularityMinute: "YYYY-MM-DD HH24:MI",
	GranularitySecond: "YYYY-MM-DD HH24:MI:SS",
}

func (postgresDialect) Truncate(expr string, g Granularity) string {
	format, ok := postgresFormats[g]
	if !ok {
		return expr
	}

	return "to_char(" + expr + ", '" + format + "')"
}

// sqliteDialect has no regex operator and matches with escaped LIKE
// patterns instead.
type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (sqliteDialect) Match(expr string, mode FilterMode, value string) (string, []any) {
	v := likeEscaper.Replace(value)

	switch mode {
	case ModeNotContains:
		return expr + ` NOT LIKE ? ESCAPE '\'`, []any{"%" + v + "%"}
	case ModeBeginsWith:
		return expr + ` LIKE ? ESCAPE '\'`, []any{v + "%"}
	case ModeEndsWith:
		return expr + ` LIKE ? ESCAPE '\'`, []any{"%" + v}
	default:
		return expr + ` LIKE ? ESCAPE '\'`, []any{"%" + v + "%"}
	}
}

var sqliteFormats = map[Granularity]string{
	GranularityMonth:  "%Y-%m",
	GranularityDay:    "%Y-%m-%d",
	GranularityHour:   "%Y-%m-%d %H:00",
	GranularityMinute: "%Y-%m-%d %H:%M",
	GranularitySecond: "%Y-%m-%d %H:%M:%S",
}

func (sqliteDialect) Truncate(expr string, g Granularity) string {
	format, ok := sqliteFormats[g]
	if !ok {
		return expr
	}

	return "strftime('" + format + "', " + expr + ")"
}
