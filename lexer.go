// lexer.go — shared scanner for both planning dialects.
//
// One lexer serves the temporal (ANML-style) and the hierarchical
// (S-expression) surface syntaxes; a mode flag switches the handful of rules
// that differ between them:
//
//   - temporal mode: keywords are reserved, ':=' / ':+=' / ':-=' / ':in'
//     compound operators, '//' and '/* */' comments.
//   - hierarchical mode: '-' may appear inside identifiers
//     (ordered-subtasks), '?name' lexes as VARIABLE, ':name' as KEYWORD,
//     ';' starts a line comment.
//
// A lexical error does not abort the scan: the lexer records it, resyncs at
// the next whitespace or punctuation boundary and keeps going, so one pass
// reports every bad literal in a file.
package planc

import (
	"fmt"
	"strconv"
)

// LexMode selects the dialect-specific scanning rules.
type LexMode int

const (
	ModeTemporal LexMode = iota
	ModeHierarchical
)

// LexicalError is a recoverable scanning failure at a source position.
type LexicalError struct {
	Pos Position
	Msg string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("LexicalError at %d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// Lexer scans a source string into tokens.
type Lexer struct {
	src    string
	mode   LexMode
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 1-based column of cur
	tokens []Token
	errs   []*LexicalError

	// position where the current token started
	tokStart Position
}

// NewLexer creates a lexer for the given source in the given mode.
func NewLexer(src string, mode LexMode) *Lexer {
	return &Lexer{src: src, mode: mode, line: 1, col: 1}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) addToken(tt TokenType, lit any) Token {
	tok := Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Pos:     l.tokStart,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

func (l *Lexer) previousToken() *Token {
	if len(l.tokens) == 0 {
		return nil
	}
	return &l.tokens[len(l.tokens)-1]
}

func (l *Lexer) errHere(msg string) {
	l.errs = append(l.errs, &LexicalError{Pos: l.tokStart, Msg: msg})
}

// resync skips ahead to the next whitespace or punctuation boundary so the
// scan can continue after a lexical error.
func (l *Lexer) resync() {
	for {
		b, ok := l.peek()
		if !ok {
			return
		}
		switch b {
		case ' ', '\t', '\r', '\n', '(', ')', '[', ']', '{', '}', ',', ';':
			l.start = l.cur
			return
		}
		l.advance()
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

// isNameByte reports whether b may continue an identifier. The hierarchical
// dialect additionally allows '-' inside names (ordered-subtasks, get-rock).
func (l *Lexer) isNameByte(b byte) bool {
	if isAlphaNum(b) {
		return true
	}
	return l.mode == ModeHierarchical && b == '-'
}

// canBeLeftOperand reports whether a '-' after this token is subtraction
// rather than the sign of a negative literal.
func canBeLeftOperand(t TokenType) bool {
	switch t {
	case ID, INTEGER, FLOAT, KW_DURATION, KW_START, KW_END, RPAREN, RBRACKET:
		return true
	default:
		return false
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch {
		case ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t':
			l.advance()
			l.start = l.cur
		case ch == '/' && l.mode == ModeTemporal:
			next, ok := l.peekN(1)
			if !ok {
				return
			}
			if next == '/' {
				for {
					b, ok := l.peek()
					if !ok || b == '\n' {
						break
					}
					l.advance()
				}
				l.start = l.cur
			} else if next == '*' {
				l.skipBlockComment()
			} else {
				return
			}
		case ch == ';' && l.mode == ModeHierarchical:
			for {
				b, ok := l.peek()
				if !ok || b == '\n' {
					break
				}
				l.advance()
			}
			l.start = l.cur
		default:
			return
		}
	}
}

func (l *Lexer) skipBlockComment() {
	open := Position{Line: l.line, Col: l.col, Offset: l.cur}
	l.advance() // '/'
	l.advance() // '*'
	for {
		b, ok := l.peek()
		if !ok {
			l.errs = append(l.errs, &LexicalError{Pos: open, Msg: "block comment was not terminated"})
			l.start = l.cur
			return
		}
		if b == '*' {
			if b2, ok2 := l.peekN(1); ok2 && b2 == '/' {
				l.advance()
				l.advance()
				l.start = l.cur
				return
			}
		}
		l.advance()
	}
}

// scanName parses an identifier in the current mode.
func (l *Lexer) scanName() string {
	for {
		b, ok := l.peek()
		if !ok || !l.isNameByte(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber parses an integer or float literal. A leading '-' (already
// consumed by the caller) is part of the literal.
func (l *Lexer) scanNumber() (TokenType, any, bool) {
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}
	sawDot := false
	if b, ok := l.peek(); ok && b == '.' {
		if b2, ok2 := l.peekN(1); ok2 && isDigit(b2) {
			sawDot = true
			l.advance()
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}
	// A trailing alpha glued to a number is a malformed literal (e.g. "1x").
	if b, ok := l.peek(); ok && isAlpha(b) {
		l.errHere("malformed number")
		l.resync()
		return ILLEGAL, nil, false
	}
	lex := l.src[l.start:l.cur]
	if !sawDot {
		v, err := strconv.ParseInt(lex, 10, 64)
		if err != nil {
			l.errHere("invalid integer literal")
			return ILLEGAL, nil, false
		}
		return INTEGER, v, true
	}
	vf, err := strconv.ParseFloat(lex, 64)
	if err != nil {
		l.errHere("invalid float literal")
		return ILLEGAL, nil, false
	}
	return FLOAT, vf, true
}

// scanColonOperator handles ':' prefixed forms. In temporal mode these are
// the compound operators ':=', ':+=', ':-=' and ':in'; in hierarchical mode
// ':name' is a section keyword token.
func (l *Lexer) scanColonOperator() Token {
	if l.mode == ModeHierarchical {
		if b, ok := l.peek(); ok && isAlpha(b) {
			savedStart := l.start
			l.start = l.cur
			name := l.scanName()
			l.start = savedStart
			return l.addToken(KEYWORD, name)
		}
		return l.addToken(COLON, nil)
	}
	b, ok := l.peek()
	if !ok {
		return l.addToken(COLON, nil)
	}
	switch b {
	case '=':
		l.advance()
		return l.addToken(ASSIGN, nil)
	case '+':
		if b2, ok2 := l.peekN(1); ok2 && b2 == '=' {
			l.advance()
			l.advance()
			return l.addToken(INCREASE, nil)
		}
	case '-':
		if b2, ok2 := l.peekN(1); ok2 && b2 == '=' {
			l.advance()
			l.advance()
			return l.addToken(DECREASE, nil)
		}
	case 'i':
		if b2, ok2 := l.peekN(1); ok2 && b2 == 'n' {
			if b3, ok3 := l.peekN(2); !ok3 || !isAlphaNum(b3) {
				l.advance()
				l.advance()
				return l.addToken(INASSIGN, nil)
			}
		}
	}
	return l.addToken(COLON, nil)
}

func (l *Lexer) scanToken() Token {
	for {
		l.skipWhitespaceAndComments()
		l.tokStart = Position{Line: l.line, Col: l.col, Offset: l.cur}
		l.start = l.cur

		if l.isAtEnd() {
			return l.addToken(EOF, nil)
		}

		ch, _ := l.advance()

		switch ch {
		case '(':
			return l.addToken(LPAREN, nil)
		case ')':
			return l.addToken(RPAREN, nil)
		case '[':
			return l.addToken(LBRACKET, nil)
		case ']':
			return l.addToken(RBRACKET, nil)
		case '{':
			return l.addToken(LBRACE, nil)
		case '}':
			return l.addToken(RBRACE, nil)
		case ',':
			return l.addToken(COMMA, nil)
		case ';':
			return l.addToken(SEMI, nil)
		case '+':
			return l.addToken(PLUS, nil)
		case '*':
			return l.addToken(STAR, nil)
		case '/':
			return l.addToken(SLASH, nil)
		case ':':
			return l.scanColonOperator()
		case '?':
			if l.mode == ModeHierarchical {
				if b, ok := l.peek(); ok && isAlpha(b) {
					savedStart := l.start
					l.start = l.cur
					name := l.scanName()
					l.start = savedStart
					return l.addToken(VARIABLE, name)
				}
			}
			l.errHere("unexpected character: '?'")
			l.resync()
			continue
		case '-':
			// Negative literal when what precedes cannot be a left operand;
			// this keeps the parser free of backtracking on '-1' vs 'a - 1'.
			if b, ok := l.peek(); ok && isDigit(b) {
				prev := l.previousToken()
				if prev == nil || !canBeLeftOperand(prev.Type) {
					tt, lit, ok := l.scanNumber()
					if !ok {
						continue
					}
					return l.addToken(tt, lit)
				}
			}
			return l.addToken(MINUS, nil)
		case '=':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(EQ, nil)
			}
			l.errHere("unexpected character: '=' (did you mean ':=' or '=='?)")
			l.resync()
			continue
		case '!':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(NEQ, nil)
			}
			l.errHere("unexpected character: '!'")
			l.resync()
			continue
		case '<':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(LESS_EQ, nil)
			}
			return l.addToken(LESS, nil)
		case '>':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(GREATER_EQ, nil)
			}
			return l.addToken(GREATER, nil)
		}

		if isDigit(ch) {
			l.cur = l.start
			l.line = l.tokStart.Line
			l.col = l.tokStart.Col
			tt, lit, ok := l.scanNumber()
			if !ok {
				continue
			}
			return l.addToken(tt, lit)
		}

		if isAlpha(ch) {
			l.cur = l.start
			l.line = l.tokStart.Line
			l.col = l.tokStart.Col
			lex := l.scanName()
			if l.mode == ModeTemporal {
				if tt, ok := keywords[lex]; ok {
					return l.addToken(tt, lex)
				}
			} else {
				// The boolean connectives keep their keyword identity in
				// S-expressions; everything else is a name.
				switch lex {
				case "and":
					return l.addToken(KW_AND, lex)
				case "or":
					return l.addToken(KW_OR, lex)
				case "not":
					return l.addToken(KW_NOT, lex)
				}
			}
			return l.addToken(ID, lex)
		}

		l.errHere(fmt.Sprintf("unexpected character: %q", ch))
		l.resync()
	}
}

// Scan tokenizes the entire source. The token slice always ends with EOF;
// lexical errors are collected, not fatal, so both results are meaningful.
func (l *Lexer) Scan() ([]Token, []*LexicalError) {
	for {
		tok := l.scanToken()
		if tok.Type == EOF {
			return l.tokens, l.errs
		}
	}
}
