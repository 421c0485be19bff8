// parser_temporal.go — recursive-descent parser for the temporal dialect.
//
// The surface syntax is the free-form block style: `;`-separated top-level
// statements mixing type/fluent/constant/instance/action declarations with
// bare timed statements and goal blocks, in any order. Expressions use a
// small Pratt core; intervals are recognized with a bounded try-parse since
// `(` opens both intervals and parenthesized expressions.
//
// A malformed statement is reported as a SyntaxError and skipped to the
// next `;` or matching brace, so the rest of the file is still checked.
package planc

import (
	"errors"
	"fmt"
)

// ParseTemporal lexes and parses one temporal-dialect file. Lexical and
// syntax errors are reported to diags; the returned AST holds everything
// that parsed cleanly.
func ParseTemporal(filename, src string, diags *Diagnostics) *TemporalFile {
	lex := NewLexer(src, ModeTemporal)
	toks, lexErrs := lex.Scan()
	for _, le := range lexErrs {
		diags.Report(le.Pos, KindLexical, "%s", le.Msg)
	}
	p := &tparser{toks: toks, diags: diags}
	file := &TemporalFile{Name: filename}
	for !p.atEnd() {
		d := p.declaration()
		if d != nil {
			file.Decls = append(file.Decls, d)
		}
	}
	return file
}

type tparser struct {
	toks  []Token
	i     int
	diags *Diagnostics
}

type tparseError struct {
	pos Position
	msg string
}

func (e *tparseError) Error() string { return e.msg }

// errReported marks a failure whose diagnostic was already emitted at the
// site, with a more specific kind than fail's SyntaxError.
var errReported = errors.New("diagnostic already reported")

func (p *tparser) atEnd() bool { return p.peek().Type == EOF }

func (p *tparser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *tparser) peekN(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *tparser) prev() Token { return p.toks[p.i-1] }

func (p *tparser) match(tts ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, tt := range tts {
		if p.peek().Type == tt {
			p.i++
			return true
		}
	}
	return false
}

func (p *tparser) need(tt TokenType, what string) (Token, error) {
	if p.match(tt) {
		return p.prev(), nil
	}
	g := p.peek()
	return Token{}, &tparseError{pos: g.Pos, msg: fmt.Sprintf("expected %s in %s, found %s", tt, what, g.Type)}
}

func (p *tparser) fail(err error) {
	if errors.Is(err, errReported) {
		return
	}
	if pe, ok := err.(*tparseError); ok {
		p.diags.Report(pe.pos, KindSyntax, "%s", pe.msg)
		return
	}
	p.diags.Report(p.peek().Pos, KindSyntax, "%s", err.Error())
}

// syncStatement skips to and past the next `;` at brace depth zero, so a
// later statement can parse. A closing brace belonging to an enclosing
// block is left for the caller.
func (p *tparser) syncStatement() {
	depth := 0
	for !p.atEnd() {
		switch p.peek().Type {
		case SEMI:
			if depth == 0 {
				p.i++
				return
			}
		case LBRACE:
			depth++
		case RBRACE:
			if depth == 0 {
				return
			}
			depth--
		}
		p.i++
	}
}

// --- top-level declarations ---

func (p *tparser) declaration() Decl {
	var d Decl
	var err error
	switch p.peek().Type {
	case KW_TYPE:
		d, err = p.typeDecl()
	case KW_INSTANCE:
		d, err = p.instanceDecl()
	case KW_FLUENT, KW_CONSTANT:
		d, err = p.fluentDecl()
	case KW_ACTION:
		d, err = p.actionDecl()
	case KW_GOAL:
		d, err = p.goalDecl()
	default:
		d, err = p.bareTimedDecl()
	}
	if err != nil {
		p.fail(err)
		before := p.i
		p.syncStatement()
		if p.i == before && !p.atEnd() {
			// A stray closer with no open block; skip it or the top-level
			// loop never advances.
			p.i++
		}
		return nil
	}
	return d
}

func (p *tparser) typeDecl() (Decl, error) {
	start := p.peek().Pos
	p.match(KW_TYPE)
	name, err := p.need(ID, "type declaration")
	if err != nil {
		return nil, err
	}
	var supers []string
	for p.match(LESS) {
		s, err := p.need(ID, "type declaration")
		if err != nil {
			return nil, err
		}
		supers = append(supers, s.Lexeme)
	}
	if _, err := p.need(SEMI, "type declaration"); err != nil {
		return nil, err
	}
	return &TypeDecl{P: start, Name: name.Lexeme, Supers: supers}, nil
}

func (p *tparser) instanceDecl() (Decl, error) {
	start := p.peek().Pos
	p.match(KW_INSTANCE)
	te, err := p.typeExpr()
	if err != nil {
		return nil, err
	}
	first, err := p.need(ID, "instance declaration")
	if err != nil {
		return nil, err
	}
	names := []string{first.Lexeme}
	for p.match(COMMA) {
		n, err := p.need(ID, "instance declaration")
		if err != nil {
			return nil, err
		}
		names = append(names, n.Lexeme)
	}
	if _, err := p.need(SEMI, "instance declaration"); err != nil {
		return nil, err
	}
	return &InstanceDecl{P: start, Type: te, Names: names}, nil
}

func (p *tparser) fluentDecl() (Decl, error) {
	start := p.peek().Pos
	constant := p.peek().Type == KW_CONSTANT
	p.i++
	te, err := p.typeExpr()
	if err != nil {
		return nil, err
	}
	name, err := p.need(ID, "fluent declaration")
	if err != nil {
		return nil, err
	}
	var params []Param
	if p.match(LPAREN) {
		params, err = p.paramList()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "fluent parameter list"); err != nil {
			return nil, err
		}
	}
	var init Expr
	if p.match(ASSIGN) {
		init, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.need(SEMI, "fluent declaration"); err != nil {
		return nil, err
	}
	return &FluentDecl{P: start, Constant: constant, Value: te, Name: name.Lexeme, Params: params, Init: init}, nil
}

func (p *tparser) typeExpr() (TypeExpr, error) {
	tok := p.peek()
	switch tok.Type {
	case KW_BOOLEAN:
		p.i++
		return TypeExpr{P: tok.Pos, Kind: ValueBool}, nil
	case KW_INTEGER, KW_FLOAT:
		p.i++
		te := TypeExpr{P: tok.Pos, Kind: ValueInt}
		if tok.Type == KW_FLOAT {
			te.Kind = ValueFloat
		}
		if p.match(LBRACKET) {
			lo, err := p.expression()
			if err != nil {
				return te, err
			}
			if _, err := p.need(COMMA, "bounded numeric type"); err != nil {
				return te, err
			}
			hi, err := p.expression()
			if err != nil {
				return te, err
			}
			if _, err := p.need(RBRACKET, "bounded numeric type"); err != nil {
				return te, err
			}
			te.Bounded, te.Lo, te.Hi = true, lo, hi
		}
		return te, nil
	case ID:
		p.i++
		return TypeExpr{P: tok.Pos, Kind: ValueObject, Name: tok.Lexeme}, nil
	default:
		return TypeExpr{}, &tparseError{pos: tok.Pos, msg: fmt.Sprintf("expected a type, found %s", tok.Type)}
	}
}

func (p *tparser) paramList() ([]Param, error) {
	var params []Param
	if p.peek().Type == RPAREN {
		return params, nil
	}
	for {
		te, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		name, err := p.need(ID, "parameter list")
		if err != nil {
			return nil, err
		}
		params = append(params, Param{P: name.Pos, Name: name.Lexeme, Type: te})
		if !p.match(COMMA) {
			return params, nil
		}
	}
}

func (p *tparser) actionDecl() (Decl, error) {
	start := p.peek().Pos
	p.match(KW_ACTION)
	name, err := p.need(ID, "action declaration")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(LPAREN, "action declaration"); err != nil {
		return nil, err
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RPAREN, "action declaration"); err != nil {
		return nil, err
	}
	if _, err := p.need(LBRACE, "action declaration"); err != nil {
		return nil, err
	}
	act := &ActionDecl{P: start, Name: name.Lexeme, Params: params}
	for !p.atEnd() && p.peek().Type != RBRACE {
		stmts, err := p.actionStmt()
		if err != nil {
			p.fail(err)
			p.syncStatement()
			continue
		}
		act.Body = append(act.Body, stmts...)
	}
	if _, err := p.need(RBRACE, "action body"); err != nil {
		return nil, err
	}
	p.match(SEMI) // trailing ';' after the body is conventional, not required
	return act, nil
}

func (p *tparser) actionStmt() ([]ActionStmt, error) {
	if p.peek().Type == KW_DURATION {
		return p.durationStmt()
	}
	if p.peek().Type == KW_WHEN {
		return p.whenStmt()
	}
	ts, err := p.timedStmts(true)
	if err != nil {
		return nil, err
	}
	out := make([]ActionStmt, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out, nil
}

func (p *tparser) durationStmt() ([]ActionStmt, error) {
	start := p.peek().Pos
	p.match(KW_DURATION)
	op := p.peek()
	switch op.Type {
	case ASSIGN, EQ, LESS, LESS_EQ, GREATER, GREATER_EQ:
		p.i++
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(SEMI, "duration constraint"); err != nil {
			return nil, err
		}
		return []ActionStmt{&DurationStmt{P: start, Op: opText(op.Type), Expr: e}}, nil
	case INASSIGN:
		p.i++
		if _, err := p.need(LBRACKET, "duration bounds"); err != nil {
			return nil, err
		}
		lo, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(COMMA, "duration bounds"); err != nil {
			return nil, err
		}
		hi, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RBRACKET, "duration bounds"); err != nil {
			return nil, err
		}
		if _, err := p.need(SEMI, "duration constraint"); err != nil {
			return nil, err
		}
		// `duration :in [lo, hi]` is sugar for the conjunction of the
		// two closed relational bounds.
		return []ActionStmt{
			&DurationStmt{P: start, Op: ">=", Expr: lo},
			&DurationStmt{P: start, Op: "<=", Expr: hi},
		}, nil
	default:
		p.diags.Report(op.Pos, KindMalformedDuration,
			"expected a duration operator (:=, ==, <, <=, >, >= or :in), found %s", op.Type)
		return nil, errReported
	}
}

func opText(tt TokenType) string {
	switch tt {
	case ASSIGN:
		return ":="
	case INCREASE:
		return ":+="
	case DECREASE:
		return ":-="
	case EQ:
		return "=="
	case NEQ:
		return "!="
	case LESS:
		return "<"
	case LESS_EQ:
		return "<="
	case GREATER:
		return ">"
	case GREATER_EQ:
		return ">="
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case KW_AND:
		return "and"
	case KW_OR:
		return "or"
	case KW_XOR:
		return "xor"
	case KW_IMPLIES:
		return "implies"
	}
	return "?"
}

// bareTimedDecl parses a top-level timed statement or expression block.
// whenStmt parses a conditional effect: `when [q] cond { [q] eff; ... };`.
// The block entries are assignments; the builder rejects plain conditions.
func (p *tparser) whenStmt() ([]ActionStmt, error) {
	start := p.peek().Pos
	p.match(KW_WHEN)
	iv, err := p.tryInterval()
	if err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	w := &WhenStmt{P: start, Cond: &TimedStmt{P: cond.Pos(), Interval: iv, Expr: cond}}
	if _, err := p.need(LBRACE, "'when' block"); err != nil {
		return nil, err
	}
	for !p.atEnd() && p.peek().Type != RBRACE {
		ts, err := p.timedStmts(true)
		if err != nil {
			return nil, err
		}
		w.Effects = append(w.Effects, ts...)
	}
	if _, err := p.need(RBRACE, "'when' block"); err != nil {
		return nil, err
	}
	p.match(SEMI)
	if len(w.Effects) == 0 {
		return nil, &tparseError{pos: start, msg: "empty 'when' block"}
	}
	return []ActionStmt{w}, nil
}

// quantExpr parses `forall(T v, ...) { e1; e2; }` or the exists form. The
// body expressions are conjoined.
func (p *tparser) quantExpr() (Expr, error) {
	tok := p.peek()
	p.i++
	q := &Quant{P: tok.Pos, Exists: tok.Type == KW_EXISTS}
	if _, err := p.need(LPAREN, "quantifier"); err != nil {
		return nil, err
	}
	vars, err := p.paramList()
	if err != nil {
		return nil, err
	}
	if len(vars) == 0 {
		return nil, &tparseError{pos: tok.Pos, msg: "quantifier needs at least one variable"}
	}
	q.Vars = vars
	if _, err := p.need(RPAREN, "quantifier"); err != nil {
		return nil, err
	}
	if _, err := p.need(LBRACE, "quantifier body"); err != nil {
		return nil, err
	}
	for !p.atEnd() && p.peek().Type != RBRACE {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(SEMI, "quantifier body"); err != nil {
			return nil, err
		}
		q.Body = append(q.Body, e)
	}
	if _, err := p.need(RBRACE, "quantifier body"); err != nil {
		return nil, err
	}
	if len(q.Body) == 0 {
		return nil, &tparseError{pos: tok.Pos, msg: "empty quantifier body"}
	}
	return q, nil
}

func (p *tparser) bareTimedDecl() (Decl, error) {
	ts, err := p.timedStmts(true)
	if err != nil {
		return nil, err
	}
	if len(ts) == 1 {
		return ts[0], nil
	}
	return &timedGroup{P: ts[0].P, Items: ts}, nil
}

// timedGroup is a top-level `[q] { s1; s2; }` block; the semantic builder
// treats it exactly like its member statements.
type timedGroup struct {
	P     Position
	Items []*TimedStmt
}

func (d *timedGroup) Pos() Position { return d.P }
func (*timedGroup) declNode()       {}

// timedStmts parses `[q] stmt;`, `[q] { stmt; ... };`, or `stmt;` and
// returns one TimedStmt per inner statement, each carrying the shared
// qualifier. requireSemi controls the trailing ';' (always true today).
func (p *tparser) timedStmts(requireSemi bool) ([]*TimedStmt, error) {
	start := p.peek().Pos
	iv, err := p.tryInterval()
	if err != nil {
		return nil, err
	}
	if iv != nil && p.match(LBRACE) {
		var out []*TimedStmt
		for !p.atEnd() && p.peek().Type != RBRACE {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(SEMI, "statement block"); err != nil {
				return nil, err
			}
			out = append(out, &TimedStmt{P: e.Pos(), Interval: iv, Expr: e})
		}
		if _, err := p.need(RBRACE, "statement block"); err != nil {
			return nil, err
		}
		p.match(SEMI)
		if len(out) == 0 {
			return nil, &tparseError{pos: start, msg: "empty statement block"}
		}
		return out, nil
	}
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if requireSemi {
		if _, err := p.need(SEMI, "statement"); err != nil {
			return nil, err
		}
	}
	return []*TimedStmt{{P: start, Interval: iv, Expr: e}}, nil
}

func (p *tparser) goalDecl() (Decl, error) {
	start := p.peek().Pos
	p.match(KW_GOAL)
	g := &GoalDecl{P: start}
	if p.match(LBRACE) {
		for !p.atEnd() && p.peek().Type != RBRACE {
			ts, err := p.timedStmts(true)
			if err != nil {
				return nil, err
			}
			g.Items = append(g.Items, ts...)
		}
		if _, err := p.need(RBRACE, "goal block"); err != nil {
			return nil, err
		}
		p.match(SEMI)
		return g, nil
	}
	ts, err := p.timedStmts(true)
	if err != nil {
		return nil, err
	}
	g.Items = ts
	return g, nil
}

// --- intervals ---

// tryInterval attempts to parse a temporal qualifier at the current token.
// `[` always opens an interval here; `(` may open either an interval or a
// parenthesized expression, so a failed attempt backtracks with no error.
func (p *tparser) tryInterval() (*IntervalSyntax, error) {
	tok := p.peek()
	if tok.Type != LBRACKET && tok.Type != LPAREN {
		return nil, nil
	}
	save := p.i
	iv, err := p.interval()
	if err != nil {
		if tok.Type == LBRACKET {
			return nil, err // '[' is unambiguous; report
		}
		p.i = save
		return nil, nil // reparse as expression
	}
	return iv, nil
}

func (p *tparser) interval() (*IntervalSyntax, error) {
	open := p.peek()
	p.i++
	iv := &IntervalSyntax{P: open.Pos, Paren: open.Type == LPAREN, OpenLower: open.Type == LPAREN}
	if p.match(KW_ALL) {
		iv.IsAllToken = true
		return p.closeInterval(iv)
	}
	lo, err := p.timepointExpr()
	if err != nil {
		return nil, err
	}
	iv.Lo = lo
	if p.match(COMMA) {
		iv.HasComma = true
		hi, err := p.timepointExpr()
		if err != nil {
			return nil, err
		}
		iv.Hi = hi
	}
	return p.closeInterval(iv)
}

func (p *tparser) closeInterval(iv *IntervalSyntax) (*IntervalSyntax, error) {
	switch p.peek().Type {
	case RBRACKET:
		p.i++
		iv.OpenUpper = false
		return iv, nil
	case RPAREN:
		p.i++
		iv.OpenUpper = true
		return iv, nil
	default:
		g := p.peek()
		return nil, &tparseError{pos: g.Pos, msg: fmt.Sprintf("expected ']' or ')' to close the interval, found %s", g.Type)}
	}
}

// timepointExpr parses the arithmetic sub-grammar of interval endpoints, in
// which `start` and `end` appear as plain names.
func (p *tparser) timepointExpr() (Expr, error) {
	return p.binary(precAdd, true)
}

// --- expressions (Pratt core) ---

const (
	precAssign = iota + 1
	precImplies
	precXor
	precOr
	precAnd
	precCmp
	precAdd
	precMul
	precUnary
)

func binaryPrec(tt TokenType) (int, bool) {
	switch tt {
	case ASSIGN, INCREASE, DECREASE:
		return precAssign, true
	case KW_IMPLIES:
		return precImplies, true
	case KW_XOR:
		return precXor, true
	case KW_OR:
		return precOr, true
	case KW_AND:
		return precAnd, true
	case LESS, LESS_EQ, GREATER, GREATER_EQ, EQ, NEQ:
		return precCmp, true
	case PLUS, MINUS:
		return precAdd, true
	case STAR, SLASH:
		return precMul, true
	}
	return 0, false
}

func (p *tparser) expression() (Expr, error) {
	return p.binary(precAssign, false)
}

// binary parses expressions whose operators bind at least as tightly as
// minPrec. timepoint mode restricts the grammar to endpoint arithmetic.
func (p *tparser) binary(minPrec int, timepoint bool) (Expr, error) {
	lhs, err := p.unary(timepoint)
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		prec, ok := binaryPrec(op.Type)
		if !ok || prec < minPrec {
			return lhs, nil
		}
		if timepoint && prec < precAdd {
			return lhs, nil
		}
		p.i++
		rhs, err := p.binary(prec+1, timepoint)
		if err != nil {
			return nil, err
		}
		lhs = &Binary{P: op.Pos, Op: opText(op.Type), X: lhs, Y: rhs}
	}
}

func (p *tparser) unary(timepoint bool) (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case MINUS:
		p.i++
		x, err := p.unary(timepoint)
		if err != nil {
			return nil, err
		}
		return &Unary{P: tok.Pos, Op: "-", X: x}, nil
	case KW_NOT:
		if timepoint {
			return nil, &tparseError{pos: tok.Pos, msg: "'not' is not allowed in a timepoint expression"}
		}
		p.i++
		x, err := p.unary(timepoint)
		if err != nil {
			return nil, err
		}
		return &Unary{P: tok.Pos, Op: "not", X: x}, nil
	}
	return p.primary(timepoint)
}

func (p *tparser) primary(timepoint bool) (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.i++
		return &Literal{P: tok.Pos, Kind: LitInt, Int: tok.Literal.(int64)}, nil
	case FLOAT:
		p.i++
		return &Literal{P: tok.Pos, Kind: LitFloat, Float: tok.Literal.(float64)}, nil
	case KW_TRUE:
		p.i++
		return &Literal{P: tok.Pos, Kind: LitBool, Bool: true}, nil
	case KW_FALSE:
		p.i++
		return &Literal{P: tok.Pos, Kind: LitBool, Bool: false}, nil
	case KW_START, KW_END:
		if !timepoint {
			return nil, &tparseError{pos: tok.Pos, msg: fmt.Sprintf("%q is only valid inside a temporal qualifier", tok.Lexeme)}
		}
		p.i++
		return &Ref{P: tok.Pos, Name: tok.Lexeme}, nil
	case STAR:
		// Wildcard placeholder; valid only as an argument, checked by the
		// semantic builder.
		p.i++
		return &Wildcard{P: tok.Pos}, nil
	case KW_FORALL, KW_EXISTS:
		if timepoint {
			return nil, &tparseError{pos: tok.Pos, msg: fmt.Sprintf("%q is not allowed in a timepoint expression", tok.Lexeme)}
		}
		return p.quantExpr()
	case ID:
		p.i++
		r := &Ref{P: tok.Pos, Name: tok.Lexeme}
		if p.match(LPAREN) {
			r.Args = []Expr{}
			if p.peek().Type != RPAREN {
				for {
					arg, err := p.binary(precImplies, timepoint)
					if err != nil {
						return nil, err
					}
					r.Args = append(r.Args, arg)
					if !p.match(COMMA) {
						break
					}
				}
			}
			if _, err := p.need(RPAREN, "argument list"); err != nil {
				return nil, err
			}
		}
		return r, nil
	case LPAREN:
		p.i++
		e, err := p.binary(precAssign, timepoint)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "parenthesized expression"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, &tparseError{pos: tok.Pos, msg: fmt.Sprintf("unexpected %s in expression", tok.Type)}
	}
}
