package matcher

// reservedKeywords are normalized tokens that would break generated SQL or
// code identifiers. A normalized column name equal to one of them gets
// KeywordSuffix appended.
var reservedKeywords = map[string]bool{
	// SQL
	"all": true, "alter": true, "and": true, "any": true, "as": true,
	"asc": true, "between": true, "by": true, "case": true, "cast": true,
	"check": true, "column": true, "constraint": true, "create": true,
	"cross": true, "current": true, "default": true, "delete": true,
	"desc": true, "distinct": true, "drop": true, "else": true, "end": true,
	"except": true, "exists": true, "false": true, "fetch": true,
	"foreign": true, "from": true, "full": true, "grant": true, "group": true,
	"having": true, "in": true, "index": true, "inner": true, "insert": true,
	"intersect": true, "into": true, "is": true, "join": true, "key": true,
	"left": true, "like": true, "limit": true, "not": true, "null": true,
	"offset": true, "on": true, "or": true, "order": true, "outer": true,
	"over": true, "partition": true, "primary": true, "references": true,
	"right": true, "row": true, "rows": true, "select": true, "set": true,
	"table": true, "then": true, "to": true, "true": true, "union": true,
	"unique": true, "update": true, "user": true, "using": true,
	"values": true, "when": true, "where": true, "window": true, "with": true,
	// Go
	"break": true, "chan": true, "const": true, "continue": true,
	"defer": true, "fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true, "map": true,
	"package": true, "range": true, "return": true,
	"struct": true, "switch": true, "type": true, "var": true, "nil": true,
}

// KeywordSuffix disambiguates normalized names that collide with a keyword.
const KeywordSuffix = "_col"

// IsReservedKeyword reports whether token is a reserved SQL or Go keyword.
func IsReservedKeyword(token string) bool {
	return reservedKeywords[token]
}
