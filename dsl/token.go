package dsl

// TokenKind classifies a lexical token of the pipeline DSL.
type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokIdent
	TokKeyword
	TokInt
	TokFloat
	TokString
	TokPunct
)

// Token is one lexical unit with its source position for error messages.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
	Line int
}

var keywords = map[string]bool{
	"as": true, "where": true, "take": true, "project": true,
	"project-remove": true, "project-rename": true, "project-keep": true,
	"top": true, "by": true, "asc": true, "desc": true,
	"summarize": true, "distinct": true, "explode": true,
	"ignore-errors": true, "lookup": true, "from": true, "on": true,
	"join": true, "kind": true, "left-inner": true, "left-outer": true,
	"case": true, "when": true, "then": true, "else": true, "end": true,
	"and": true, "or": true, "not": true, "null": true, "true": true, "false": true,
	"bool": true, "int": true, "long": true, "float": true, "double": true,
	"string": true, "datetime": true, "array": true, "object": true, "dynamic": true,
}
