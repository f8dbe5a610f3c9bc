package cypher

import (
	"fmt"
	"sort"
	"strings"
)

// projOutput is one output row of a projection: the computed column values
// plus a representative source Row, kept around so ORDER BY can evaluate
// expressions that reach back into pre-projection bindings.
type projOutput struct {
	values []Value
	rep    Row
}

// aggState accumulates one aggregate RETURN/WITH item across a group.
type aggState struct {
	count  int64
	sum    float64
	isInt  bool
	hasVal bool
	min    Value
	max    Value
}

func (st *aggState) observe(v Value) {
	if v.IsNull() {
		return
	}
	st.count++
	if f, ok := v.asFloat(); ok {
		st.sum += f
		if v.Kind != VInt64 {
			st.isInt = false
		}
	} else {
		st.isInt = false
	}
	if !st.hasVal {
		st.min, st.max = v, v
		st.hasVal = true
		return
	}
	if compareValues(v, st.min) < 0 {
		st.min = v
	}
	if compareValues(v, st.max) > 0 {
		st.max = v
	}
}

type group struct {
	keyParts []Value
	rep      Row
	acc      map[int]*aggState
}

func newGroup(aggIdx map[int]string, keyParts []Value, rep Row) *group {
	g := &group{keyParts: keyParts, rep: rep, acc: map[int]*aggState{}}
	for i := range aggIdx {
		g.acc[i] = &aggState{isInt: true}
	}
	return g
}

func (g *group) accumulate(e *execCtx, items []ReturnItem, aggIdx map[int]string, row Row) error {
	for i, fn := range aggIdx {
		st := g.acc[i]
		it := items[i]
		var v Value
		if len(it.Expr.Args) > 0 {
			var err error
			v, err = e.eval(it.Expr.Args[0], row)
			if err != nil {
				return err
			}
		} else {
			v = Int(1)
		}
		if fn == "count" {
			if !v.IsNull() {
				st.count++
			}
			continue
		}
		st.observe(v)
	}
	return nil
}

func (g *group) finish(items []ReturnItem, aggIdx map[int]string) []Value {
	vals := make([]Value, len(items))
	keyPos := 0
	for i, it := range items {
		if fn, isAgg := aggIdx[i]; isAgg {
			st := g.acc[i]
			switch fn {
			case "count":
				vals[i] = Int(st.count)
			case "sum":
				if st.isInt {
					vals[i] = Int(int64(st.sum))
				} else {
					vals[i] = Float(st.sum)
				}
			case "avg":
				if st.count == 0 {
					vals[i] = Null()
				} else {
					vals[i] = Float(st.sum / float64(st.count))
				}
			case "min":
				if st.hasVal {
					vals[i] = st.min
				} else {
					vals[i] = Null()
				}
			case "max":
				if st.hasVal {
					vals[i] = st.max
				} else {
					vals[i] = Null()
				}
			}
			continue
		}
		if keyPos < len(g.keyParts) {
			vals[i] = g.keyParts[keyPos]
		} else {
			vals[i] = Null()
		}
		keyPos++
		_ = it
	}
	return vals
}

func hashTuple(vals []Value) string {
	var b strings.Builder
	for _, v := range vals {
		fmt.Fprintf(&b, "%v\x1f", v.hashKey())
	}
	return b.String()
}

func columnName(it ReturnItem) string {
	if it.Alias != "" {
		return it.Alias
	}
	switch it.Expr.Kind {
	case ExprIdent:
		return it.Expr.Ident
	case ExprProperty:
		base := "expr"
		if it.Expr.Target.Kind == ExprIdent {
			base = it.Expr.Target.Ident
		}
		return base + "." + it.Expr.Key
	case ExprFnCall:
		return strings.ToLower(it.Expr.FnName)
	default:
		return "expr"
	}
}

// evalProjection implements WITH/RETURN: optional aggregate grouping,
// DISTINCT, ORDER BY, SKIP, LIMIT, per spec.md §4.7.
func (e *execCtx) evalProjection(rows []Row, items []ReturnItem, distinct bool, orderBy []SortItem, skip, limit *int64) ([]string, []projOutput, error) {
	aggIdx := map[int]string{}
	for i, it := range items {
		if it.Expr.Kind == ExprFnCall && isAggregateFn(it.Expr.FnName) {
			aggIdx[i] = strings.ToLower(it.Expr.FnName)
		}
	}

	columns := make([]string, len(items))
	for i, it := range items {
		columns[i] = columnName(it)
	}

	var outputs []projOutput
	if len(aggIdx) == 0 {
		for _, row := range rows {
			vals := make([]Value, len(items))
			for i, it := range items {
				v, err := e.eval(it.Expr, row)
				if err != nil {
					return nil, nil, err
				}
				vals[i] = v
			}
			outputs = append(outputs, projOutput{values: vals, rep: row})
		}
	} else {
		groups := map[string]*group{}
		var order []string
		for _, row := range rows {
			keyParts := make([]Value, 0, len(items)-len(aggIdx))
			for i, it := range items {
				if _, isAgg := aggIdx[i]; isAgg {
					continue
				}
				v, err := e.eval(it.Expr, row)
				if err != nil {
					return nil, nil, err
				}
				keyParts = append(keyParts, v)
			}
			hk := hashTuple(keyParts)
			g, ok := groups[hk]
			if !ok {
				g = newGroup(aggIdx, keyParts, row)
				groups[hk] = g
				order = append(order, hk)
			}
			if err := g.accumulate(e, items, aggIdx, row); err != nil {
				return nil, nil, err
			}
		}
		if len(order) == 0 {
			// Empty grouping still yields exactly one row (spec.md §4.7).
			g := newGroup(aggIdx, nil, Row{})
			order = append(order, "")
			groups[""] = g
		}
		for _, hk := range order {
			g := groups[hk]
			outputs = append(outputs, projOutput{values: g.finish(items, aggIdx), rep: g.rep})
		}
	}

	if distinct {
		seen := map[string]bool{}
		deduped := outputs[:0]
		for _, o := range outputs {
			hk := hashTuple(o.values)
			if seen[hk] {
				continue
			}
			seen[hk] = true
			deduped = append(deduped, o)
		}
		outputs = deduped
	}

	if len(orderBy) > 0 {
		var sortErr error
		sort.SliceStable(outputs, func(i, j int) bool {
			for _, so := range orderBy {
				vi, err := e.eval(so.Expr, outputs[i].rep)
				if err != nil {
					sortErr = err
					return false
				}
				vj, err := e.eval(so.Expr, outputs[j].rep)
				if err != nil {
					sortErr = err
					return false
				}
				cmp := compareValues(vi, vj)
				if cmp == 0 {
					continue
				}
				if so.Descending {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
		if sortErr != nil {
			return nil, nil, sortErr
		}
	}

	if skip != nil {
		n := int(*skip)
		if n > len(outputs) {
			n = len(outputs)
		}
		if n > 0 {
			outputs = outputs[n:]
		}
	}
	if limit != nil {
		n := int(*limit)
		if n < 0 {
			n = 0
		}
		if n < len(outputs) {
			outputs = outputs[:n]
		}
	}

	return columns, outputs, nil
}

func (e *execCtx) project(rows []Row, rc *ReturnClause) ([]Row, error) {
	cols, outputs, err := e.evalProjection(rows, rc.Items, rc.Distinct, rc.OrderBy, rc.Skip, rc.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(outputs))
	for i, o := range outputs {
		nr := Row{}
		for j, c := range cols {
			nr[c] = o.values[j]
		}
		out[i] = nr
	}
	return out, nil
}

func (e *execCtx) finalize(rows []Row, rc *ReturnClause) (*ResultSet, error) {
	cols, outputs, err := e.evalProjection(rows, rc.Items, rc.Distinct, rc.OrderBy, rc.Skip, rc.Limit)
	if err != nil {
		return nil, err
	}
	rs := &ResultSet{Columns: cols}
	for _, o := range outputs {
		rs.Rows = append(rs.Rows, o.values)
	}
	return rs, nil
}
