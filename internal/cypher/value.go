package cypher

import "fmt"

// ValueKind tags Value's variant, exactly enumerating spec.md §6's
// ResultSet value set.
type ValueKind int

const (
	VNull ValueKind = iota
	VBool
	VInt64
	VFloat64
	VText
	VNodeRef
	VEdgeRef
	VList
	VMap
)

// Value is a single cell of a ResultSet row.
type Value struct {
	Kind ValueKind

	Bool  bool
	Int   int64
	Float float64
	Text  string

	NodeID uint64 // VNodeRef

	EdgeSlot uint32 // VEdgeRef
	EdgeGen  uint32 // VEdgeRef

	List []Value          // VList
	Map  map[string]Value // VMap
}

func Null() Value                { return Value{Kind: VNull} }
func Bool(b bool) Value          { return Value{Kind: VBool, Bool: b} }
func Int(n int64) Value          { return Value{Kind: VInt64, Int: n} }
func Float(f float64) Value      { return Value{Kind: VFloat64, Float: f} }
func Text(s string) Value        { return Value{Kind: VText, Text: s} }
func NodeRef(id uint64) Value    { return Value{Kind: VNodeRef, NodeID: id} }
func EdgeRef(slot, gen uint32) Value {
	return Value{Kind: VEdgeRef, EdgeSlot: slot, EdgeGen: gen}
}
func ListOf(vs []Value) Value       { return Value{Kind: VList, List: vs} }
func MapOf(m map[string]Value) Value { return Value{Kind: VMap, Map: m} }

// IsNull reports whether v is the Null value.
func (v Value) IsNull() bool { return v.Kind == VNull }

// Truthy implements the three-valued logic WHERE evaluation needs
// (spec.md §4.7): null is falsy, any non-bool non-null value is an error
// the caller surfaces as EvalError{TypeMismatch}.
func (v Value) Truthy() (bool, bool) {
	switch v.Kind {
	case VNull:
		return false, true
	case VBool:
		return v.Bool, true
	default:
		return false, false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case VNull:
		return "null"
	case VBool:
		return fmt.Sprintf("%v", v.Bool)
	case VInt64:
		return fmt.Sprintf("%d", v.Int)
	case VFloat64:
		return fmt.Sprintf("%g", v.Float)
	case VText:
		return v.Text
	case VNodeRef:
		return fmt.Sprintf("Node(%d)", v.NodeID)
	case VEdgeRef:
		return fmt.Sprintf("Edge(%d,%d)", v.EdgeSlot, v.EdgeGen)
	case VList:
		return fmt.Sprintf("%v", v.List)
	case VMap:
		return fmt.Sprintf("%v", v.Map)
	default:
		return "?"
	}
}

// Equal implements value equality for `=`/`<>` comparisons (DISTINCT and
// grouping use hashKey instead). Lists/maps compare structurally.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		// Numeric cross-kind equality: 1 = 1.0.
		if vf, ok := v.asFloat(); ok {
			if of, ok := o.asFloat(); ok {
				return vf == of
			}
		}
		return false
	}
	switch v.Kind {
	case VNull:
		return true
	case VBool:
		return v.Bool == o.Bool
	case VInt64:
		return v.Int == o.Int
	case VFloat64:
		return v.Float == o.Float
	case VText:
		return v.Text == o.Text
	case VNodeRef:
		return v.NodeID == o.NodeID
	case VEdgeRef:
		return v.EdgeSlot == o.EdgeSlot && v.EdgeGen == o.EdgeGen
	case VList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case VMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for k, vv := range v.Map {
			ov, ok := o.Map[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) asFloat() (float64, bool) {
	switch v.Kind {
	case VInt64:
		return float64(v.Int), true
	case VFloat64:
		return v.Float, true
	default:
		return 0, false
	}
}

// hashKey produces a comparable Go value suitable as a map key, for
// DISTINCT's tuple-hashing pass (spec.md §4.7).
func (v Value) hashKey() any {
	switch v.Kind {
	case VNull:
		return nil
	case VBool:
		return v.Bool
	case VInt64:
		return v.Int
	case VFloat64:
		return v.Float
	case VText:
		return v.Text
	case VNodeRef:
		return v.NodeID
	case VEdgeRef:
		return [2]uint32{v.EdgeSlot, v.EdgeGen}
	default:
		return fmt.Sprintf("%v", v)
	}
}
