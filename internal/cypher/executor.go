package cypher

import (
	"math"
	"strings"

	"github.com/nen-co/nendb/internal/nenerr"
)

// pendingWrite is a mutation queued while a Part's clauses run their read
// phase, applied only once the whole Part has finished matching/evaluating
// (spec.md §4.7 step 5): WHERE and later clauses in the same Part still see
// pre-mutation graph state.
type pendingWrite func() error

type execCtx struct {
	g Graph
}

func newUnsupported(msg string) error { return nenerr.NewEvalError(nenerr.Unsupported, msg) }
func newUnbound(msg string) error     { return nenerr.NewEvalError(nenerr.UnboundVariable, msg) }
func newMismatch(msg string) error    { return nenerr.NewEvalError(nenerr.TypeMismatch, msg) }

// Execute parses and runs a single Cypher query against g.
func Execute(query string, g Graph) (*ResultSet, error) {
	q, err := NewParser(query).ParseQuery()
	if err != nil {
		return nil, err
	}
	e := &execCtx{g: g}
	return e.run(q)
}

func (e *execCtx) run(q *Query) (*ResultSet, error) {
	rows := []Row{{}}
	for _, part := range q.Parts {
		var pending []pendingWrite
		var err error
		for _, clause := range part.Clauses {
			rows, pending, err = e.applyClause(clause, rows, pending)
			if err != nil {
				return nil, err
			}
		}
		for _, w := range pending {
			if err := w(); err != nil {
				return nil, err
			}
		}
		if part.With != nil {
			rows, err = e.project(rows, (*ReturnClause)(part.With))
			if err != nil {
				return nil, err
			}
		}
	}
	if q.Return == nil {
		return &ResultSet{}, nil
	}
	return e.finalize(rows, q.Return)
}

func (e *execCtx) applyClause(c Clause, rows []Row, pending []pendingWrite) ([]Row, []pendingWrite, error) {
	switch cl := c.(type) {
	case *MatchClause:
		return e.applyMatch(cl, rows, pending)
	case *CreateClause:
		return e.applyCreate(cl, rows, pending)
	case *MergeClause:
		return e.applyMerge(cl, rows, pending)
	case *SetClause:
		return e.applySet(cl, rows, pending)
	case *DeleteClause:
		return e.applyDelete(cl, rows, pending)
	case *UnwindClause:
		return e.applyUnwind(cl, rows, pending)
	case *RemoveClause:
		return e.applyRemove(cl, rows, pending)
	case *UsingClause:
		return rows, pending, nil
	default:
		return nil, nil, newUnsupported("unsupported clause")
	}
}

func (e *execCtx) applyMatch(cl *MatchClause, rows []Row, pending []pendingWrite) ([]Row, []pendingWrite, error) {
	var out []Row
	for _, row := range rows {
		matched, err := e.matchPattern(cl.Pattern, row)
		if err != nil {
			return nil, nil, err
		}
		if cl.Where != nil && len(matched) > 0 {
			filtered := matched[:0]
			for _, mr := range matched {
				v, err := e.eval(cl.Where, mr)
				if err != nil {
					return nil, nil, err
				}
				ok, determinate := v.Truthy()
				if !determinate {
					return nil, nil, newMismatch("WHERE expression did not evaluate to a boolean or null")
				}
				if ok {
					filtered = append(filtered, mr)
				}
			}
			matched = filtered
		}
		if len(matched) == 0 {
			if cl.Optional {
				nr := cloneRow(row)
				for _, v := range patternVariables(cl.Pattern) {
					if _, ok := nr[v]; !ok {
						nr[v] = Null()
					}
				}
				out = append(out, nr)
			}
			continue
		}
		out = append(out, matched...)
	}
	return out, pending, nil
}

func (e *execCtx) applyCreate(cl *CreateClause, rows []Row, pending []pendingWrite) ([]Row, []pendingWrite, error) {
	var out []Row
	for _, row := range rows {
		nr, newPending, err := e.createPattern(cl.Pattern, row)
		if err != nil {
			return nil, nil, err
		}
		pending = append(pending, newPending...)
		out = append(out, nr)
	}
	return out, pending, nil
}

func (e *execCtx) applyMerge(cl *MergeClause, rows []Row, pending []pendingWrite) ([]Row, []pendingWrite, error) {
	var out []Row
	for _, row := range rows {
		matched, err := e.matchPattern(cl.Pattern, row)
		if err != nil {
			return nil, nil, err
		}
		if len(matched) > 0 {
			out = append(out, matched...)
			continue
		}
		nr, newPending, err := e.createPattern(cl.Pattern, row)
		if err != nil {
			return nil, nil, err
		}
		pending = append(pending, newPending...)
		out = append(out, nr)
	}
	return out, pending, nil
}

// createPattern binds (and queues creation for) every node/relationship in
// pat that isn't already bound in row. A node pattern whose variable is
// already bound is reused as an endpoint rather than recreated, matching
// Cypher's CREATE-with-existing-variable behavior.
func (e *execCtx) createPattern(pat *Pattern, row Row) (Row, []pendingWrite, error) {
	nr := cloneRow(row)
	var pending []pendingWrite
	for _, path := range pat.Paths {
		nodeIDs := make([]uint64, len(path.Nodes))
		for i, np := range path.Nodes {
			key := e.bindKey(np)
			if v, ok := nr[key]; ok && v.Kind == VNodeRef {
				nodeIDs[i] = v.NodeID
				continue
			}
			id := e.g.NewNodeID()
			kind := e.g.KindForLabels(np.Labels)
			propVals, err := e.evalPropsMap(np.Properties, nr)
			if err != nil {
				return nil, nil, err
			}
			props := encodeProps128(propVals)
			nr[key] = NodeRef(id)
			nodeIDs[i] = id
			idc, kindc, propsc := id, kind, props
			pending = append(pending, func() error { return e.g.InsertNode(idc, kindc, propsc) })
		}
		for i := range path.Rels {
			rel := path.Rels[i]
			from, to := nodeIDs[i], nodeIDs[i+1]
			if rel.Direction == RelLeft {
				from, to = to, from
			}
			label := e.g.LabelForType(rel.Type)
			propVals, err := e.evalPropsMap(rel.Properties, nr)
			if err != nil {
				return nil, nil, err
			}
			props := encodeProps64(propVals)
			relVar := rel.Variable
			fromc, toc := from, to
			pending = append(pending, func() error {
				slot, gen, err := e.g.InsertEdge(fromc, toc, label, props)
				if err != nil {
					return err
				}
				if relVar != "" {
					nr[relVar] = EdgeRef(slot, gen)
				}
				return nil
			})
		}
	}
	stripAnon(nr)
	return nr, pending, nil
}

func (e *execCtx) evalPropsMap(props map[string]*Expr, row Row) (map[string]Value, error) {
	m := make(map[string]Value, len(props))
	for k, expr := range props {
		v, err := e.eval(expr, row)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func encodeProps128(m map[string]Value) [128]byte {
	var arr [128]byte
	copy(arr[:], encodeProps(m, 128))
	return arr
}

func encodeProps64(m map[string]Value) [64]byte {
	var arr [64]byte
	copy(arr[:], encodeProps(m, 64))
	return arr
}

func (e *execCtx) applySet(cl *SetClause, rows []Row, pending []pendingWrite) ([]Row, []pendingWrite, error) {
	for _, row := range rows {
		updates := map[uint64]map[string]Value{}
		for _, item := range cl.Items {
			bound, ok := row[item.Variable]
			if !ok || bound.Kind != VNodeRef {
				return nil, nil, newUnbound("SET target is not a bound node")
			}
			val, err := e.eval(item.Value, row)
			if err != nil {
				return nil, nil, err
			}
			id := bound.NodeID
			m, ok := updates[id]
			if !ok {
				m = map[string]Value{}
				if _, props, found := e.g.LookupNode(id); found {
					m = decodeProps(props[:])
				}
				updates[id] = m
			}
			m[item.Key] = val
		}
		for id, m := range updates {
			idc, mc := id, m
			pending = append(pending, func() error { return e.g.SetNodeProps(idc, encodeProps128(mc)) })
		}
	}
	return rows, pending, nil
}

func (e *execCtx) applyRemove(cl *RemoveClause, rows []Row, pending []pendingWrite) ([]Row, []pendingWrite, error) {
	for _, row := range rows {
		updates := map[uint64]map[string]Value{}
		for _, item := range cl.Items {
			bound, ok := row[item.Variable]
			if !ok || bound.Kind != VNodeRef {
				return nil, nil, newUnbound("REMOVE target is not a bound node")
			}
			id := bound.NodeID
			m, ok := updates[id]
			if !ok {
				m = map[string]Value{}
				if _, props, found := e.g.LookupNode(id); found {
					m = decodeProps(props[:])
				}
				updates[id] = m
			}
			delete(m, item.Key)
		}
		for id, m := range updates {
			idc, mc := id, m
			pending = append(pending, func() error { return e.g.SetNodeProps(idc, encodeProps128(mc)) })
		}
	}
	return rows, pending, nil
}

func (e *execCtx) applyDelete(cl *DeleteClause, rows []Row, pending []pendingWrite) ([]Row, []pendingWrite, error) {
	for _, row := range rows {
		for _, expr := range cl.Variables {
			v, err := e.eval(expr, row)
			if err != nil {
				return nil, nil, err
			}
			switch v.Kind {
			case VNodeRef:
				id, detach := v.NodeID, cl.Detach
				pending = append(pending, func() error { return e.g.DeleteNode(id, detach) })
			case VEdgeRef:
				slot, gen := v.EdgeSlot, v.EdgeGen
				pending = append(pending, func() error {
					from, to, label, _, ok := e.g.LookupEdge(slot, gen)
					if !ok {
						return nil
					}
					return e.g.DeleteEdge(from, to, label)
				})
			default:
				return nil, nil, newMismatch("DELETE target is not a node or relationship")
			}
		}
	}
	return rows, pending, nil
}

func (e *execCtx) applyUnwind(cl *UnwindClause, rows []Row, pending []pendingWrite) ([]Row, []pendingWrite, error) {
	var out []Row
	for _, row := range rows {
		v, err := e.eval(cl.Expr, row)
		if err != nil {
			return nil, nil, err
		}
		if v.Kind != VList {
			return nil, nil, newMismatch("UNWIND requires a list expression")
		}
		for _, item := range v.List {
			nr := cloneRow(row)
			nr[cl.As] = item
			out = append(out, nr)
		}
	}
	return out, pending, nil
}

// eval resolves an expression tree to a Value against row's bindings.
func (e *execCtx) eval(expr *Expr, row Row) (Value, error) {
	switch expr.Kind {
	case ExprInt:
		return Int(expr.IntVal), nil
	case ExprFloat:
		return Float(expr.FloatVal), nil
	case ExprString:
		return Text(expr.StrVal), nil
	case ExprBool:
		return Bool(expr.BoolVal), nil
	case ExprNull:
		return Null(), nil
	case ExprIdent:
		v, ok := row[expr.Ident]
		if !ok {
			return Value{}, newUnbound("unbound variable: " + expr.Ident)
		}
		return v, nil
	case ExprProperty:
		target, err := e.eval(expr.Target, row)
		if err != nil {
			return Value{}, err
		}
		return e.evalProperty(target, expr.Key)
	case ExprMap:
		m := make(map[string]Value, len(expr.MapVal))
		for _, ent := range expr.MapVal {
			v, err := e.eval(ent.Value, row)
			if err != nil {
				return Value{}, err
			}
			m[ent.Key] = v
		}
		return MapOf(m), nil
	case ExprList:
		vals := make([]Value, len(expr.ListVal))
		for i, el := range expr.ListVal {
			v, err := e.eval(el, row)
			if err != nil {
				return Value{}, err
			}
			vals[i] = v
		}
		return ListOf(vals), nil
	case ExprFnCall:
		return e.evalFnCall(expr, row)
	case ExprUnary:
		return e.evalUnary(expr, row)
	case ExprBinary:
		return e.evalBinary(expr, row)
	default:
		return Value{}, newUnsupported("unsupported expression")
	}
}

func (e *execCtx) evalProperty(target Value, key string) (Value, error) {
	switch target.Kind {
	case VNull:
		return Null(), nil
	case VNodeRef:
		_, props, ok := e.g.LookupNode(target.NodeID)
		if !ok {
			return Null(), nil
		}
		if v, ok := decodeProps(props[:])[key]; ok {
			return v, nil
		}
		return Null(), nil
	case VEdgeRef:
		_, _, _, props, ok := e.g.LookupEdge(target.EdgeSlot, target.EdgeGen)
		if !ok {
			return Null(), nil
		}
		if v, ok := decodeProps(props[:])[key]; ok {
			return v, nil
		}
		return Null(), nil
	case VMap:
		if v, ok := target.Map[key]; ok {
			return v, nil
		}
		return Null(), nil
	default:
		return Value{}, newMismatch("property access on a non-node/edge/map value")
	}
}

var aggregateFns = map[string]bool{"count": true, "sum": true, "avg": true, "min": true, "max": true}

func isAggregateFn(name string) bool { return aggregateFns[strings.ToLower(name)] }

func (e *execCtx) evalFnCall(expr *Expr, row Row) (Value, error) {
	name := strings.ToLower(expr.FnName)
	if aggregateFns[name] {
		return Value{}, newUnsupported("aggregate function used outside a RETURN/WITH projection")
	}
	switch name {
	case "id":
		if len(expr.Args) != 1 {
			return Value{}, newMismatch("id() takes exactly one argument")
		}
		v, err := e.eval(expr.Args[0], row)
		if err != nil {
			return Value{}, err
		}
		switch v.Kind {
		case VNodeRef:
			return Int(int64(v.NodeID)), nil
		case VEdgeRef:
			return Int(int64(v.EdgeSlot)), nil
		default:
			return Value{}, newMismatch("id() requires a node or relationship")
		}
	default:
		return Value{}, nenerr.NewEvalError(nenerr.UnknownFunction, "unknown function: "+expr.FnName)
	}
}

func (e *execCtx) evalUnary(expr *Expr, row Row) (Value, error) {
	v, err := e.eval(expr.Operand, row)
	if err != nil {
		return Value{}, err
	}
	switch expr.UnaryOp {
	case UnaryNot:
		if v.IsNull() {
			return Null(), nil
		}
		if v.Kind != VBool {
			return Value{}, newMismatch("NOT requires a boolean operand")
		}
		return Bool(!v.Bool), nil
	case UnaryNeg:
		if v.IsNull() {
			return Null(), nil
		}
		if v.Kind == VInt64 {
			return Int(-v.Int), nil
		}
		if f, ok := v.asFloat(); ok {
			return Float(-f), nil
		}
		return Value{}, newMismatch("unary '-' requires a number")
	default:
		return Value{}, newUnsupported("unsupported unary operator")
	}
}

func (e *execCtx) evalBinary(expr *Expr, row Row) (Value, error) {
	switch expr.BinOp {
	case OpAnd:
		return e.evalAnd(expr, row)
	case OpOr:
		return e.evalOr(expr, row)
	}

	left, err := e.eval(expr.Left, row)
	if err != nil {
		return Value{}, err
	}
	right, err := e.eval(expr.Right, row)
	if err != nil {
		return Value{}, err
	}

	switch expr.BinOp {
	case OpIs:
		return Bool(left.IsNull()), nil
	case OpEq:
		if left.IsNull() || right.IsNull() {
			return Null(), nil
		}
		return Bool(left.Equal(right)), nil
	case OpNeq:
		if left.IsNull() || right.IsNull() {
			return Null(), nil
		}
		return Bool(!left.Equal(right)), nil
	case OpLt, OpLe, OpGt, OpGe:
		if left.IsNull() || right.IsNull() {
			return Null(), nil
		}
		cmp, ok := comparable(left, right)
		if !ok {
			return Value{}, newMismatch("incomparable operand types")
		}
		switch expr.BinOp {
		case OpLt:
			return Bool(cmp < 0), nil
		case OpLe:
			return Bool(cmp <= 0), nil
		case OpGt:
			return Bool(cmp > 0), nil
		default:
			return Bool(cmp >= 0), nil
		}
	case OpIn:
		if right.Kind != VList {
			return Value{}, newMismatch("IN requires a list operand")
		}
		if left.IsNull() {
			return Null(), nil
		}
		for _, item := range right.List {
			if left.Equal(item) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return e.evalArith(expr.BinOp, left, right)
	default:
		return Value{}, newUnsupported("unsupported binary operator")
	}
}

func (e *execCtx) evalAnd(expr *Expr, row Row) (Value, error) {
	left, err := e.eval(expr.Left, row)
	if err != nil {
		return Value{}, err
	}
	if left.Kind == VBool && !left.Bool {
		return Bool(false), nil
	}
	right, err := e.eval(expr.Right, row)
	if err != nil {
		return Value{}, err
	}
	if right.Kind == VBool && !right.Bool {
		return Bool(false), nil
	}
	if left.IsNull() || right.IsNull() {
		return Null(), nil
	}
	if left.Kind != VBool || right.Kind != VBool {
		return Value{}, newMismatch("AND requires boolean operands")
	}
	return Bool(left.Bool && right.Bool), nil
}

func (e *execCtx) evalOr(expr *Expr, row Row) (Value, error) {
	left, err := e.eval(expr.Left, row)
	if err != nil {
		return Value{}, err
	}
	if left.Kind == VBool && left.Bool {
		return Bool(true), nil
	}
	right, err := e.eval(expr.Right, row)
	if err != nil {
		return Value{}, err
	}
	if right.Kind == VBool && right.Bool {
		return Bool(true), nil
	}
	if left.IsNull() || right.IsNull() {
		return Null(), nil
	}
	if left.Kind != VBool || right.Kind != VBool {
		return Value{}, newMismatch("OR requires boolean operands")
	}
	return Bool(left.Bool || right.Bool), nil
}

func (e *execCtx) evalArith(op BinOp, left, right Value) (Value, error) {
	if left.IsNull() || right.IsNull() {
		return Null(), nil
	}
	if op == OpAdd && left.Kind == VText && right.Kind == VText {
		return Text(left.Text + right.Text), nil
	}
	lf, lok := left.asFloat()
	rf, rok := right.asFloat()
	if !lok || !rok {
		return Value{}, newMismatch("arithmetic requires numeric operands")
	}
	bothInt := left.Kind == VInt64 && right.Kind == VInt64
	switch op {
	case OpAdd:
		if bothInt {
			return Int(left.Int + right.Int), nil
		}
		return Float(lf + rf), nil
	case OpSub:
		if bothInt {
			return Int(left.Int - right.Int), nil
		}
		return Float(lf - rf), nil
	case OpMul:
		if bothInt {
			return Int(left.Int * right.Int), nil
		}
		return Float(lf * rf), nil
	case OpDiv:
		if rf == 0 {
			return Value{}, nenerr.NewEvalError(nenerr.DivByZero, "division by zero")
		}
		if bothInt && left.Int%right.Int == 0 {
			return Int(left.Int / right.Int), nil
		}
		return Float(lf / rf), nil
	case OpMod:
		if bothInt {
			if right.Int == 0 {
				return Value{}, nenerr.NewEvalError(nenerr.DivByZero, "modulo by zero")
			}
			return Int(left.Int % right.Int), nil
		}
		return Float(math.Mod(lf, rf)), nil
	default:
		return Value{}, newUnsupported("unsupported arithmetic operator")
	}
}

// comparable orders two values for </<=/>/>=, spanning numeric cross-kind,
// text, and bool comparisons; ok is false when the pair can't be ordered.
func comparable(a, b Value) (int, bool) {
	if af, aok := a.asFloat(); aok {
		if bf, bok := b.asFloat(); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if a.Kind == VText && b.Kind == VText {
		return strings.Compare(a.Text, b.Text), true
	}
	if a.Kind == VBool && b.Kind == VBool {
		if a.Bool == b.Bool {
			return 0, true
		}
		if !a.Bool {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func compareValues(a, b Value) int {
	c, _ := comparable(a, b)
	return c
}
