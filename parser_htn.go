// parser_htn.go — parser for the hierarchical (S-expression) dialect.
//
// The surface form is fully parenthesized: one `(define (domain N) ...)`
// per file with :requirements, :types, :predicates and repeated :task,
// :method and :action forms in any order after the header. Reading happens
// in two stages, a generic S-expression reader over the shared token stream
// and a decoder from lists to the HTN AST; a malformed form is reported and
// skipped so its siblings are still decoded.
package planc

import "fmt"

// ParseHTN lexes and parses one hierarchical-dialect file.
func ParseHTN(filename, src string, diags *Diagnostics) *HTNFile {
	lex := NewLexer(src, ModeHierarchical)
	toks, lexErrs := lex.Scan()
	for _, le := range lexErrs {
		diags.Report(le.Pos, KindLexical, "%s", le.Msg)
	}
	file := &HTNFile{Name: filename}
	r := &sreader{toks: toks}
	top, err := r.read()
	if err != nil {
		diags.Report(err.pos, KindSyntax, "%s", err.msg)
		return file
	}
	if top == nil {
		diags.Report(Position{Line: 1, Col: 1}, KindSyntax, "expected a (define ...) form")
		return file
	}
	d := &htnDecoder{file: file, diags: diags}
	d.decodeDefine(top)
	return file
}

// --- S-expression reading ---

type sexpr interface{ pos() Position }

type satom struct{ tok Token }

type slist struct {
	open  Position
	items []sexpr
}

func (a *satom) pos() Position { return a.tok.Pos }
func (l *slist) pos() Position { return l.open }

type sreadError struct {
	pos Position
	msg string
}

type sreader struct {
	toks []Token
	i    int
}

func (r *sreader) peek() Token {
	if r.i >= len(r.toks) {
		return r.toks[len(r.toks)-1]
	}
	return r.toks[r.i]
}

// read returns the first top-level S-expression (nil on an empty file).
func (r *sreader) read() (*slist, *sreadError) {
	for r.peek().Type != EOF {
		tok := r.peek()
		if tok.Type != LPAREN {
			return nil, &sreadError{pos: tok.Pos, msg: fmt.Sprintf("expected '(', found %s", tok.Type)}
		}
		l, err := r.readList()
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, nil
}

// readList consumes a balanced list. On EOF the innermost unmatched '('
// is the one this call opened, which is exactly the position reported.
func (r *sreader) readList() (*slist, *sreadError) {
	open := r.peek()
	r.i++ // '('
	l := &slist{open: open.Pos}
	for {
		tok := r.peek()
		switch tok.Type {
		case RPAREN:
			r.i++
			return l, nil
		case EOF:
			// This frame's '(' is the innermost one still open: every
			// deeper list either closed or already returned this error.
			return nil, &sreadError{pos: l.open, msg: "unmatched '('"}
		case LPAREN:
			inner, err := r.readList()
			if err != nil {
				return nil, err
			}
			l.items = append(l.items, inner)
		default:
			r.i++
			l.items = append(l.items, &satom{tok: tok})
		}
	}
}

// --- decoding ---

type htnDecoder struct {
	file  *HTNFile
	diags *Diagnostics
}

func (d *htnDecoder) errf(pos Position, format string, args ...any) {
	d.diags.Report(pos, KindSyntax, format, args...)
}

func atomName(e sexpr) (string, bool) {
	a, ok := e.(*satom)
	if !ok {
		return "", false
	}
	switch a.tok.Type {
	case ID, KW_AND, KW_OR, KW_NOT:
		return a.tok.Lexeme, true
	}
	return "", false
}

func keywordName(e sexpr) (string, bool) {
	a, ok := e.(*satom)
	if !ok || a.tok.Type != KEYWORD {
		return "", false
	}
	return a.tok.Literal.(string), true
}

func variableName(e sexpr) (string, bool) {
	a, ok := e.(*satom)
	if !ok || a.tok.Type != VARIABLE {
		return "", false
	}
	return a.tok.Literal.(string), true
}

func (d *htnDecoder) decodeDefine(top *slist) {
	if len(top.items) == 0 {
		d.errf(top.open, "empty top-level form")
		return
	}
	if head, ok := atomName(top.items[0]); !ok || head != "define" {
		d.errf(top.items[0].pos(), "expected (define (domain NAME) ...)")
		return
	}
	rest := top.items[1:]
	if len(rest) == 0 {
		d.errf(top.open, "missing (domain NAME) header")
		return
	}
	if hdr, ok := rest[0].(*slist); ok && len(hdr.items) == 2 {
		if kind, _ := atomName(hdr.items[0]); kind == "domain" {
			d.file.DomainName, _ = atomName(hdr.items[1])
		}
	}
	if d.file.DomainName == "" {
		d.errf(rest[0].pos(), "expected (domain NAME) header")
	} else {
		rest = rest[1:]
	}
	for _, form := range rest {
		l, ok := form.(*slist)
		if !ok || len(l.items) == 0 {
			d.errf(form.pos(), "expected a (:section ...) form")
			continue
		}
		kw, ok := keywordName(l.items[0])
		if !ok {
			d.errf(l.items[0].pos(), "expected a section keyword like :types or :action")
			continue
		}
		switch kw {
		case "requirements":
			d.decodeRequirements(l)
		case "types":
			d.decodeTypes(l)
		case "predicates":
			d.decodePredicates(l)
		case "task":
			d.decodeTask(l)
		case "method":
			d.decodeMethod(l)
		case "action":
			d.decodeAction(l)
		default:
			d.errf(l.items[0].pos(), "unknown section :%s", kw)
		}
	}
}

func (d *htnDecoder) decodeRequirements(l *slist) {
	for _, it := range l.items[1:] {
		if kw, ok := keywordName(it); ok {
			d.file.Requirements = append(d.file.Requirements, kw)
		} else {
			d.errf(it.pos(), "expected a :requirement flag")
		}
	}
}

// decodeTypes reads the `a b - super c d` grouping: each run of names
// before a '-' shares the supertype that follows it; a trailing run with no
// suffix attaches to the implicit root.
func (d *htnDecoder) decodeTypes(l *slist) {
	var pending []Token
	items := l.items[1:]
	for i := 0; i < len(items); i++ {
		a, ok := items[i].(*satom)
		if !ok {
			d.errf(items[i].pos(), "unexpected list in :types")
			continue
		}
		if a.tok.Type == MINUS {
			i++
			if i >= len(items) {
				d.errf(a.tok.Pos, "missing supertype after '-'")
				break
			}
			superTok, ok := items[i].(*satom)
			if !ok || superTok.tok.Type != ID {
				d.errf(items[i].pos(), "expected a supertype name after '-'")
				continue
			}
			for _, nt := range pending {
				d.file.Types = append(d.file.Types, TypeDecl{
					P: nt.Pos, Name: nt.Lexeme, Supers: []string{superTok.tok.Lexeme},
				})
			}
			pending = nil
			continue
		}
		if a.tok.Type != ID {
			d.errf(a.tok.Pos, "expected a type name in :types")
			continue
		}
		pending = append(pending, a.tok)
	}
	for _, nt := range pending {
		d.file.Types = append(d.file.Types, TypeDecl{P: nt.Pos, Name: nt.Lexeme})
	}
}

// decodeTypedVars expands `?a ?b - t ?c - u` into one Param per name.
// Names without a type suffix get the implicit root type.
func (d *htnDecoder) decodeTypedVars(l *slist) []Param {
	var out []Param
	var pending []Token
	flush := func(typeName string, pos Position) {
		for _, v := range pending {
			te := TypeExpr{P: pos, Kind: ValueObject, Name: typeName}
			if typeName == "" {
				te = TypeExpr{P: v.Pos, Kind: ValueObject, Name: RootTypeName}
			}
			out = append(out, Param{P: v.Pos, Name: v.Literal.(string), Type: te})
		}
		pending = nil
	}
	items := l.items
	for i := 0; i < len(items); i++ {
		a, ok := items[i].(*satom)
		if !ok {
			d.errf(items[i].pos(), "unexpected list in a parameter list")
			continue
		}
		switch a.tok.Type {
		case VARIABLE:
			pending = append(pending, a.tok)
		case MINUS:
			i++
			if i >= len(items) {
				d.errf(a.tok.Pos, "missing type after '-'")
				flush("", a.tok.Pos)
				return out
			}
			tn, ok := items[i].(*satom)
			if !ok || tn.tok.Type != ID {
				d.errf(items[i].pos(), "expected a type name after '-'")
				continue
			}
			flush(tn.tok.Lexeme, tn.tok.Pos)
		default:
			d.errf(a.tok.Pos, "expected a ?variable in a parameter list")
		}
	}
	flush("", l.open)
	return out
}

func (d *htnDecoder) decodePredicates(l *slist) {
	for _, it := range l.items[1:] {
		pl, ok := it.(*slist)
		if !ok || len(pl.items) == 0 {
			d.errf(it.pos(), "expected a (name ?arg - type ...) predicate form")
			continue
		}
		name, ok := atomName(pl.items[0])
		if !ok {
			d.errf(pl.items[0].pos(), "expected a predicate name")
			continue
		}
		params := d.decodeTypedVars(&slist{open: pl.open, items: pl.items[1:]})
		d.file.Predicates = append(d.file.Predicates, &PredicateDecl{
			P: pl.open, Name: name, Params: params,
		})
	}
}

// sections splits `:kw value :kw value ...` pairs after the form's first
// item. A keyword with no following value maps to nil.
func (d *htnDecoder) sections(items []sexpr) (string, map[string]sexpr, []Position) {
	name := ""
	if len(items) > 1 {
		if n, ok := atomName(items[1]); ok {
			name = n
			items = items[2:]
		} else {
			items = items[1:]
		}
	}
	out := map[string]sexpr{}
	var order []Position
	for i := 0; i < len(items); i++ {
		kw, ok := keywordName(items[i])
		if !ok {
			d.errf(items[i].pos(), "expected a :keyword section")
			continue
		}
		if i+1 < len(items) {
			if _, isKw := keywordName(items[i+1]); !isKw {
				out[kw] = items[i+1]
				order = append(order, items[i+1].pos())
				i++
				continue
			}
		}
		out[kw] = nil
		order = append(order, items[i].pos())
	}
	return name, out, order
}

func (d *htnDecoder) decodeTask(l *slist) {
	name, secs, _ := d.sections(l.items)
	if name == "" {
		d.errf(l.open, "task form is missing its name")
		return
	}
	t := &TaskDecl{P: l.open, Name: name}
	if pv, ok := secs["parameters"]; ok {
		if pl, ok := pv.(*slist); ok {
			t.Params = d.decodeTypedVars(pl)
		} else if pv != nil {
			d.errf(pv.pos(), ":parameters requires a (...) list")
		}
	}
	d.file.Tasks = append(d.file.Tasks, t)
}

func (d *htnDecoder) decodeMethod(l *slist) {
	name, secs, _ := d.sections(l.items)
	if name == "" {
		d.errf(l.open, "method form is missing its name")
		return
	}
	m := &MethodDecl{P: l.open, Name: name}
	if pv, ok := secs["parameters"]; ok {
		if pl, ok := pv.(*slist); ok {
			m.Params = d.decodeTypedVars(pl)
		}
	}
	tv, ok := secs["task"]
	if !ok || tv == nil {
		d.errf(l.open, "method %q is missing its :task", name)
		return
	}
	ref, err := d.decodeSubtaskRef(tv)
	if err != nil {
		return
	}
	m.Task = *ref
	if pc, ok := secs["precondition"]; ok && pc != nil {
		m.Precond = d.decodeFormula(pc)
	}
	if sv, ok := secs["ordered-subtasks"]; ok {
		m.Ordered = true
		m.Subtasks = d.decodeSubtasks(sv)
	} else if sv, ok := secs["subtasks"]; ok {
		m.Subtasks = d.decodeSubtasks(sv)
	}
	d.file.Methods = append(d.file.Methods, m)
}

func (d *htnDecoder) decodeAction(l *slist) {
	name, secs, _ := d.sections(l.items)
	if name == "" {
		d.errf(l.open, "action form is missing its name")
		return
	}
	a := &HTNAction{P: l.open, Name: name}
	if pv, ok := secs["parameters"]; ok {
		if pl, ok := pv.(*slist); ok {
			a.Params = d.decodeTypedVars(pl)
		}
	}
	if pc, ok := secs["precondition"]; ok && pc != nil {
		a.Precond = d.decodeFormula(pc)
	}
	if ef, ok := secs["effect"]; ok && ef != nil {
		a.Effect = d.decodeFormula(ef)
	}
	d.file.Actions = append(d.file.Actions, a)
}

// decodeSubtaskRef reads `(taskname ?a ?b)` or the bare `taskname` form.
func (d *htnDecoder) decodeSubtaskRef(e sexpr) (*SubtaskRef, error) {
	if n, ok := atomName(e); ok {
		return &SubtaskRef{P: e.pos(), Name: n}, nil
	}
	l, ok := e.(*slist)
	if !ok || len(l.items) == 0 {
		d.errf(e.pos(), "expected a (task ?args...) reference")
		return nil, fmt.Errorf("bad subtask reference")
	}
	name, ok := atomName(l.items[0])
	if !ok {
		d.errf(l.items[0].pos(), "expected a task or action name")
		return nil, fmt.Errorf("bad subtask reference")
	}
	ref := &SubtaskRef{P: l.open, Name: name}
	for _, arg := range l.items[1:] {
		if v, ok := variableName(arg); ok {
			ref.Args = append(ref.Args, v)
		} else if n, ok := atomName(arg); ok {
			ref.Args = append(ref.Args, n)
		} else {
			d.errf(arg.pos(), "expected a ?variable or name argument")
		}
	}
	return ref, nil
}

// decodeSubtasks reads a subtask network: either one reference or an
// `(and ...)` wrapper around several, preserving declaration order.
func (d *htnDecoder) decodeSubtasks(e sexpr) []SubtaskRef {
	if e == nil {
		return nil
	}
	l, ok := e.(*slist)
	if !ok {
		if ref, err := d.decodeSubtaskRef(e); err == nil {
			return []SubtaskRef{*ref}
		}
		return nil
	}
	if len(l.items) == 0 {
		return nil // explicit empty network `()`
	}
	if head, ok := atomName(l.items[0]); ok && head == "and" {
		var out []SubtaskRef
		for _, it := range l.items[1:] {
			if ref, err := d.decodeSubtaskRef(it); err == nil {
				out = append(out, *ref)
			}
		}
		return out
	}
	if ref, err := d.decodeSubtaskRef(e); err == nil {
		return []SubtaskRef{*ref}
	}
	return nil
}

// decodeFormula reads nested and/or/not forms of arbitrary depth over
// predicate applications.
func (d *htnDecoder) decodeFormula(e sexpr) Expr {
	l, ok := e.(*slist)
	if !ok {
		if v, ok := variableName(e); ok {
			return &Ref{P: e.pos(), Name: v}
		}
		if n, ok := atomName(e); ok {
			return &Ref{P: e.pos(), Name: n}
		}
		d.errf(e.pos(), "expected a formula")
		return nil
	}
	if len(l.items) == 0 {
		return nil // `()` is the empty precondition
	}
	head, ok := atomName(l.items[0])
	if !ok {
		d.errf(l.items[0].pos(), "expected an operator or predicate name")
		return nil
	}
	switch head {
	case "and", "or":
		var out Expr
		for _, it := range l.items[1:] {
			sub := d.decodeFormula(it)
			if sub == nil {
				continue
			}
			if out == nil {
				out = sub
			} else {
				out = &Binary{P: l.open, Op: head, X: out, Y: sub}
			}
		}
		return out
	case "not":
		if len(l.items) != 2 {
			d.errf(l.open, "'not' takes exactly one operand")
			return nil
		}
		sub := d.decodeFormula(l.items[1])
		if sub == nil {
			return nil
		}
		return &Unary{P: l.open, Op: "not", X: sub}
	default:
		r := &Ref{P: l.open, Name: head, Args: []Expr{}}
		for _, it := range l.items[1:] {
			if v, ok := variableName(it); ok {
				r.Args = append(r.Args, &Ref{P: it.pos(), Name: v})
			} else if n, ok := atomName(it); ok {
				r.Args = append(r.Args, &Ref{P: it.pos(), Name: n})
			} else {
				d.errf(it.pos(), "expected a ?variable or name argument")
			}
		}
		return r
	}
}
