package planc

import "fmt"

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	COMMA    // ","
	SEMI     // ";"
	COLON    // ":"

	// Operators
	PLUS
	MINUS
	STAR // "*"; doubles as the wildcard argument in fact tables
	SLASH
	ASSIGN   // ":="
	INCREASE // ":+="
	DECREASE // ":-="
	INASSIGN // ":in"
	EQ       // "=="
	NEQ      // "!="
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ

	// Literals & identifiers
	ID
	INTEGER
	FLOAT
	VARIABLE // "?name" (hierarchical dialect only)
	KEYWORD  // ":name" (hierarchical dialect only, e.g. ":parameters")

	// Keywords (temporal dialect)
	KW_TYPE
	KW_INSTANCE
	KW_FLUENT
	KW_CONSTANT
	KW_ACTION
	KW_GOAL
	KW_DURATION
	KW_START
	KW_END
	KW_ALL
	KW_BOOLEAN
	KW_INTEGER
	KW_FLOAT
	KW_TRUE
	KW_FALSE
	KW_AND
	KW_OR
	KW_XOR
	KW_IMPLIES
	KW_NOT
	KW_FORALL
	KW_EXISTS
	KW_WHEN
)

var tokenNames = map[TokenType]string{
	EOF:        "end of file",
	ILLEGAL:    "illegal token",
	LPAREN:     "'('",
	RPAREN:     "')'",
	LBRACKET:   "'['",
	RBRACKET:   "']'",
	LBRACE:     "'{'",
	RBRACE:     "'}'",
	COMMA:      "','",
	SEMI:       "';'",
	COLON:      "':'",
	PLUS:       "'+'",
	MINUS:      "'-'",
	STAR:       "'*'",
	SLASH:      "'/'",
	ASSIGN:     "':='",
	INCREASE:   "':+='",
	DECREASE:   "':-='",
	INASSIGN:   "':in'",
	EQ:         "'=='",
	NEQ:        "'!='",
	LESS:       "'<'",
	LESS_EQ:    "'<='",
	GREATER:    "'>'",
	GREATER_EQ: "'>='",
	ID:         "identifier",
	INTEGER:    "integer literal",
	FLOAT:      "float literal",
	VARIABLE:   "variable",
	KEYWORD:    "section keyword",
}

func (tt TokenType) String() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	for kw, t := range keywords {
		if t == tt {
			return fmt.Sprintf("'%s'", kw)
		}
	}
	return fmt.Sprintf("token(%d)", int(tt))
}

// Position is a location in a source file. Line and Col are 1-based,
// Offset is the byte offset from the start of the file.
type Position struct {
	Line   int
	Col    int
	Offset int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string // raw text slice
	Literal any    // parsed value for INTEGER/FLOAT, name for VARIABLE/KEYWORD
	Pos     Position
}

// keywords of the temporal dialect. The hierarchical dialect treats most of
// these as plain identifiers; the lexer only applies this map in temporal
// mode (and/or/not are shared and mapped in both modes).
var keywords = map[string]TokenType{
	"type":     KW_TYPE,
	"instance": KW_INSTANCE,
	"fluent":   KW_FLUENT,
	"constant": KW_CONSTANT,
	"action":   KW_ACTION,
	"goal":     KW_GOAL,
	"duration": KW_DURATION,
	"start":    KW_START,
	"end":      KW_END,
	"all":      KW_ALL,
	"boolean":  KW_BOOLEAN,
	"integer":  KW_INTEGER,
	"float":    KW_FLOAT,
	"rational": KW_FLOAT,
	"true":     KW_TRUE,
	"false":    KW_FALSE,
	"and":      KW_AND,
	"or":       KW_OR,
	"xor":      KW_XOR,
	"implies":  KW_IMPLIES,
	"not":      KW_NOT,
	"forall":   KW_FORALL,
	"exists":   KW_EXISTS,
	"when":     KW_WHEN,
}
