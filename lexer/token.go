package lexer

import "strings"

// Type identifies the kind of token produced by the Lexer.
type Type int

// Token kinds.
const (
	EOF Type = iota
	Newline
	Ident
	Number
	String

	// punctuation
	Assign // =
	Plus
	Minus
	Star
	Slash
	LParen
	RParen
	LBracket
	RBracket
	Comma
	Dot
	Colon

	// relational operators
	NotEqual   // <>
	Less       // <
	Greater    // >
	LessEqual  // <=
	GreaterEqual // >=

	// keywords
	KwAnd
	KwOr
	KwMod
	KwIf
	KwThen
	KwElse
	KwElseIf
	KwEndIf
	KwFor
	KwTo
	KwStep
	KwEndFor
	KwWhile
	KwEndWhile
	KwSub
	KwEndSub
	KwGoTo
)

var typeNames = map[Type]string{
	EOF:          "EOF",
	Newline:      "Newline",
	Ident:        "Ident",
	Number:       "Number",
	String:       "String",
	Assign:       "=",
	Plus:         "+",
	Minus:        "-",
	Star:         "*",
	Slash:        "/",
	LParen:       "(",
	RParen:       ")",
	LBracket:     "[",
	RBracket:     "]",
	Comma:        ",",
	Dot:          ".",
	Colon:        ":",
	NotEqual:     "<>",
	Less:         "<",
	Greater:      ">",
	LessEqual:    "<=",
	GreaterEqual: ">=",
	KwAnd:        "And",
	KwOr:         "Or",
	KwMod:        "Mod",
	KwIf:         "If",
	KwThen:       "Then",
	KwElse:       "Else",
	KwElseIf:     "ElseIf",
	KwEndIf:      "EndIf",
	KwFor:        "For",
	KwTo:         "To",
	KwStep:       "Step",
	KwEndFor:     "EndFor",
	KwWhile:      "While",
	KwEndWhile:   "EndWhile",
	KwSub:        "Sub",
	KwEndSub:     "EndSub",
	KwGoTo:       "GoTo",
}

// String renders a token type, e.g. for diagnostic messages.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "?"
}

// keywords maps the lower-cased spelling of a keyword to its token type.
// Keyword matching is case-insensitive.
var keywords = map[string]Type{
	"and":      KwAnd,
	"or":       KwOr,
	"mod":      KwMod,
	"if":       KwIf,
	"then":     KwThen,
	"else":     KwElse,
	"elseif":   KwElseIf,
	"endif":    KwEndIf,
	"for":      KwFor,
	"to":       KwTo,
	"step":     KwStep,
	"endfor":   KwEndFor,
	"while":    KwWhile,
	"endwhile": KwEndWhile,
	"sub":      KwSub,
	"endsub":   KwEndSub,
	"goto":     KwGoTo,
}

// lookupIdent classifies an identifier's text as a keyword token or a
// plain Ident.
func lookupIdent(s string) Type {
	if t, ok := keywords[strings.ToLower(s)]; ok {
		return t
	}
	return Ident
}

// Token is a single lexical token with its source span.
type Token struct {
	Type    Type
	Literal string
	Line    int // 0-based
	Col     int // 1-based
}
