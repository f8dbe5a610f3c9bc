package cypher

import "fmt"

// Row is a single in-flight variable binding environment: one row of the
// intermediate result as a MATCH/CREATE/WITH pipeline processes a query.
type Row map[string]Value

func cloneRow(row Row) Row {
	nr := make(Row, len(row)+2)
	for k, v := range row {
		nr[k] = v
	}
	return nr
}

// anonKey gives an unnamed node/relationship pattern a private binding slot
// for the duration of one path's expansion, so later steps in the same path
// can still reach it positionally even though no Cypher variable names it.
// Stripped back out before the row is handed to WHERE/RETURN.
func anonKey(np *NodePattern) string { return fmt.Sprintf("\x00anon%p", np) }

func stripAnon(row Row) {
	for k := range row {
		if len(k) > 0 && k[0] == 0 {
			delete(row, k)
		}
	}
}

func (e *execCtx) bindKey(np *NodePattern) string {
	if np.Variable != "" {
		return np.Variable
	}
	return anonKey(np)
}

// matchPattern runs every path in a MATCH pattern against row, producing the
// cross product of all paths' bindings.
func (e *execCtx) matchPattern(pat *Pattern, row Row) ([]Row, error) {
	rows := []Row{row}
	for _, path := range pat.Paths {
		var next []Row
		for _, r := range rows {
			expanded, err := e.matchPath(path, r)
			if err != nil {
				return nil, err
			}
			next = append(next, expanded...)
		}
		rows = next
		if len(rows) == 0 {
			break
		}
	}
	for _, r := range rows {
		stripAnon(r)
	}
	return rows, nil
}

func (e *execCtx) matchPath(path *Path, row Row) ([]Row, error) {
	rows, err := e.matchNode(path.Nodes[0], row)
	if err != nil {
		return nil, err
	}
	for i, rel := range path.Rels {
		var next []Row
		for _, r := range rows {
			expanded, err := e.expandRel(rel, path.Nodes[i], path.Nodes[i+1], r)
			if err != nil {
				return nil, err
			}
			next = append(next, expanded...)
		}
		rows = next
		if len(rows) == 0 {
			break
		}
	}
	return rows, nil
}

// matchNode binds np against every node in the graph satisfying its label
// and property constraints, unless np's variable is already bound earlier in
// this path/pattern, in which case the existing binding is reused unchanged.
func (e *execCtx) matchNode(np *NodePattern, row Row) ([]Row, error) {
	key := e.bindKey(np)
	if _, ok := row[key]; ok {
		return []Row{row}, nil
	}

	var results []Row
	hasLabels := len(np.Labels) > 0
	kind := e.g.KindForLabels(np.Labels)
	e.g.ForEachNode(func(id uint64, k uint8, props [128]byte) {
		if hasLabels && k != kind {
			return
		}
		if !e.mapMatches(np.Properties, decodeProps(props[:]), row) {
			return
		}
		nr := cloneRow(row)
		nr[key] = NodeRef(id)
		results = append(results, nr)
	})
	return results, nil
}

// mapMatches evaluates every key:expr constraint in pattern against decoded
// props, resolving expr against row for any already-bound variables it
// references. A failed evaluation is treated as a non-match rather than
// propagated, since pattern property constraints are expected to be
// constant-ish literals.
func (e *execCtx) mapMatches(pattern map[string]*Expr, decoded map[string]Value, row Row) bool {
	for k, expr := range pattern {
		want, err := e.eval(expr, row)
		if err != nil {
			return false
		}
		got, ok := decoded[k]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

func (e *execCtx) expandRel(rel *RelPattern, fromNP, toNP *NodePattern, row Row) ([]Row, error) {
	if rel.VarLength {
		return nil, newUnsupported("variable-length relationship traversal is not executed")
	}

	fromVal, ok := row[e.bindKey(fromNP)]
	if !ok || fromVal.Kind != VNodeRef {
		return nil, newUnbound("relationship pattern requires a bound start node")
	}
	curID := fromVal.NodeID

	type candidate struct {
		ne    NeighborEdge
		other uint64
	}
	var candidates []candidate
	switch rel.Direction {
	case RelRight:
		for _, ne := range e.g.NeighborsOut(curID) {
			candidates = append(candidates, candidate{ne, ne.To})
		}
	case RelLeft:
		for _, ne := range e.g.NeighborsIn(curID) {
			candidates = append(candidates, candidate{ne, ne.From})
		}
	default:
		for _, ne := range e.g.NeighborsOut(curID) {
			candidates = append(candidates, candidate{ne, ne.To})
		}
		for _, ne := range e.g.NeighborsIn(curID) {
			candidates = append(candidates, candidate{ne, ne.From})
		}
	}

	var wantLabel uint16
	filterLabel := rel.Type != ""
	if filterLabel {
		wantLabel = e.g.LabelForType(rel.Type)
	}

	toKey := e.bindKey(toNP)
	var results []Row
	for _, c := range candidates {
		if filterLabel && c.ne.Label != wantLabel {
			continue
		}
		if len(rel.Properties) > 0 && !e.mapMatches(rel.Properties, decodeProps(c.ne.Props[:]), row) {
			continue
		}

		nr := cloneRow(row)
		if existing, bound := nr[toKey]; bound {
			if existing.Kind != VNodeRef || existing.NodeID != c.other {
				continue
			}
		} else {
			kind, props, ok := e.g.LookupNode(c.other)
			if !ok {
				continue
			}
			if len(toNP.Labels) > 0 && kind != e.g.KindForLabels(toNP.Labels) {
				continue
			}
			if !e.mapMatches(toNP.Properties, decodeProps(props[:]), nr) {
				continue
			}
			nr[toKey] = NodeRef(c.other)
		}
		if rel.Variable != "" {
			nr[rel.Variable] = EdgeRef(c.ne.Slot, c.ne.Gen)
		}
		results = append(results, nr)
	}
	return results, nil
}

// patternVariables lists every named node/relationship variable a pattern
// introduces, used by OPTIONAL MATCH to null-fill an unmatched row.
func patternVariables(pat *Pattern) []string {
	var vars []string
	for _, path := range pat.Paths {
		for _, n := range path.Nodes {
			if n.Variable != "" {
				vars = append(vars, n.Variable)
			}
		}
		for _, r := range path.Rels {
			if r.Variable != "" {
				vars = append(vars, r.Variable)
			}
		}
	}
	return vars
}
