// semantic_htn.go — the semantic builder for the hierarchical dialect.
//
// The hierarchical dialect shares the type hierarchy, signature table and
// diagnostics machinery with the temporal one; only the surface forms
// differ. Predicates are boolean fluents, primitive actions get start
// preconditions and end effects, and methods are checked against the task
// and action signatures they reference.
package planc

func buildHTN(file *HTNFile, diags *Diagnostics) *Result {
	b := &builder{
		diags:     diags,
		hier:      NewHierarchy(),
		instances: map[string]*Instance{},
	}
	b.sigs = NewSignatureTable(b.hier)
	b.dom = &Domain{Name: file.DomainName, Types: b.hier, Signatures: b.sigs}
	b.prob = &Problem{Domain: b.dom}
	res := &Result{Domain: b.dom, Problem: b.prob, Diags: diags}

	for _, td := range file.Types {
		if _, err := b.hier.Declare(td.Name, td.Supers, td.P); err != nil {
			diags.Report(td.P, KindDuplicate, "%s", err.Error())
		}
	}
	if err := b.hier.Resolve(); err != nil {
		ce := err.(*CycleError)
		pos := Position{Line: 1, Col: 1}
		if t := b.hier.Lookup(ce.Members[0]); t != nil {
			pos = t.Pos
		}
		diags.Report(pos, KindCyclicHierarchy, "%s", ce.Error())
		return res
	}

	// Declare every predicate, task and action before checking any body,
	// so methods may reference either in any order.
	for _, p := range file.Predicates {
		sig := &Signature{
			Name:   p.Name,
			Kind:   SymPredicate,
			Params: b.resolveParams(p.Params),
			Value:  ValueType{Kind: ValueBool},
			Pos:    p.P,
		}
		if err := b.sigs.Register(sig); err != nil {
			diags.Report(p.P, KindDuplicate, "%s", err.Error())
		}
	}
	for _, t := range file.Tasks {
		sig := &Signature{
			Name:   t.Name,
			Kind:   SymTask,
			Params: b.resolveParams(t.Params),
			Value:  ValueType{Kind: ValueBool},
			Pos:    t.P,
		}
		if err := b.sigs.Register(sig); err != nil {
			diags.Report(t.P, KindDuplicate, "%s", err.Error())
			continue
		}
		b.dom.Tasks = append(b.dom.Tasks, &Task{Name: t.Name, Params: sig.Params})
	}
	for _, a := range file.Actions {
		sig := &Signature{
			Name:   a.Name,
			Kind:   SymAction,
			Params: b.resolveParams(a.Params),
			Value:  ValueType{Kind: ValueBool},
			Pos:    a.P,
		}
		if err := b.sigs.Register(sig); err != nil {
			diags.Report(a.P, KindDuplicate, "%s", err.Error())
		}
	}

	for _, a := range file.Actions {
		b.buildHTNAction(a)
	}
	for _, m := range file.Methods {
		b.buildMethod(m)
	}

	// A compound task nothing decomposes can never appear in a solution.
	decomposed := map[string]bool{}
	for _, m := range b.dom.Methods {
		if m.Task != nil {
			decomposed[m.Task.Name] = true
		}
	}
	for _, t := range file.Tasks {
		if !decomposed[t.Name] {
			diags.Warn(t.P, "task %q has no method that decomposes it", t.Name)
		}
	}
	return res
}

func (b *builder) buildHTNAction(a *HTNAction) {
	act := &ActionTemplate{Name: a.Name, Params: b.resolveParams(a.Params)}
	sc := &scope{params: map[string]ValueType{}}
	for _, p := range act.Params {
		sc.params[p.Name] = p.Type
	}

	if a.Precond != nil {
		vt := b.exprType(a.Precond, sc)
		if vt != nil && vt.Kind != ValueBool {
			b.diags.Report(a.Precond.Pos(), KindArityOrType, "precondition must be boolean, got %s", vt.String())
		}
		act.Statements = append(act.Statements, &Statement{Qual: AtStart(), Cond: a.Precond})
	}
	if a.Effect != nil {
		for _, lit := range effectLiterals(a.Effect) {
			b.buildEffectLiteral(act, lit, sc)
		}
	}
	b.dom.Actions = append(b.dom.Actions, act)
}

// effectLiterals flattens an `and` tree into its literal leaves.
func effectLiterals(e Expr) []Expr {
	if bin, ok := e.(*Binary); ok && bin.Op == "and" {
		return append(effectLiterals(bin.X), effectLiterals(bin.Y)...)
	}
	return []Expr{e}
}

// buildEffectLiteral turns one positive or negated predicate application
// into an end-anchored assignment statement.
func (b *builder) buildEffectLiteral(act *ActionTemplate, lit Expr, sc *scope) {
	value := true
	inner := lit
	if u, ok := lit.(*Unary); ok && u.Op == "not" {
		value = false
		inner = u.X
	}
	target, ok := inner.(*Ref)
	if !ok {
		b.diags.Report(lit.Pos(), KindSyntax, "effect must be a predicate or its negation")
		return
	}
	sig := b.checkTargetRef(target, sc)
	if sig != nil && sig.Kind != SymPredicate {
		b.diags.Report(target.P, KindArityOrType, "effect target %q is a %s, not a predicate", sig.Name, sig.Kind)
	}
	act.Statements = append(act.Statements, &Statement{
		Qual:     AtEnd(),
		IsEffect: true,
		Target:   target,
		Op:       ":=",
		Value:    &Literal{P: lit.Pos(), Kind: LitBool, Bool: value},
	})
}

func (b *builder) buildMethod(m *MethodDecl) {
	meth := &Method{Name: m.Name, Params: b.resolveParams(m.Params), Ordered: m.Ordered}
	sc := &scope{params: map[string]ValueType{}}
	for _, p := range meth.Params {
		sc.params[p.Name] = p.Type
	}

	// The decomposed task must name a declared compound task with matching
	// arity and argument types.
	sig := b.sigs.Lookup(m.Task.Name)
	switch {
	case sig == nil:
		b.diags.Report(m.Task.P, KindUndefined, "method %q decomposes undefined task %q", m.Name, m.Task.Name)
	case sig.Kind != SymTask:
		b.diags.Report(m.Task.P, KindArityOrType, "method %q must decompose a task, but %q is a %s", m.Name, sig.Name, sig.Kind)
	default:
		b.checkSubtaskArgs(m.Task, sig, sc)
		meth.Task = b.dom.Task(sig.Name)
		meth.TaskArgs = m.Task.Args
	}

	if m.Precond != nil {
		vt := b.exprType(m.Precond, sc)
		if vt != nil && vt.Kind != ValueBool {
			b.diags.Report(m.Precond.Pos(), KindArityOrType, "method precondition must be boolean, got %s", vt.String())
		}
		meth.Precond = m.Precond
	}

	// Subtask network, declaration order preserved.
	for i := range m.Subtasks {
		ref := &m.Subtasks[i]
		ssig := b.sigs.Lookup(ref.Name)
		if ssig == nil {
			b.diags.Report(ref.P, KindUndefined, "undefined subtask %q in method %q", ref.Name, m.Name)
			continue
		}
		if ssig.Kind != SymTask && ssig.Kind != SymAction {
			b.diags.Report(ref.P, KindArityOrType, "subtask %q is a %s, not a task or action", ref.Name, ssig.Kind)
			continue
		}
		b.checkSubtaskArgs(*ref, ssig, sc)
		meth.Subtasks = append(meth.Subtasks, Subtask{
			Name:     ref.Name,
			IsAction: ssig.Kind == SymAction,
			Args:     ref.Args,
		})
	}
	b.dom.Methods = append(b.dom.Methods, meth)
}

// checkSubtaskArgs checks arity and argument types of one task or action
// reference; arguments are method parameter names.
func (b *builder) checkSubtaskArgs(ref SubtaskRef, sig *Signature, sc *scope) {
	argTypes := make([]*ValueType, len(ref.Args))
	for i, name := range ref.Args {
		t, ok := sc.params[name]
		if !ok {
			b.diags.Report(ref.P, KindUndefined, "argument %q of %q is not a method parameter", name, ref.Name)
			continue
		}
		tt := t
		argTypes[i] = &tt
	}
	if err := b.sigs.CheckCall(sig, argTypes); err != nil {
		b.diags.Report(ref.P, KindArityOrType, "%s", err.Error())
	}
}
