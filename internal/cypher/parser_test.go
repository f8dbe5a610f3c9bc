package cypher

import (
	"testing"

	"github.com/nen-co/nendb/internal/nenerr"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleMatchReturn(t *testing.T) {
	q, err := NewParser(`MATCH (n:Person) RETURN n.name`).ParseQuery()
	require.NoError(t, err)
	require.Len(t, q.Parts, 1)
	require.Len(t, q.Parts[0].Clauses, 1)

	m, ok := q.Parts[0].Clauses[0].(*MatchClause)
	require.True(t, ok)
	require.False(t, m.Optional)
	require.Len(t, m.Pattern.Paths, 1)
	require.Equal(t, "n", m.Pattern.Paths[0].Nodes[0].Variable)
	require.Equal(t, []string{"Person"}, m.Pattern.Paths[0].Nodes[0].Labels)

	require.NotNil(t, q.Return)
	require.Len(t, q.Return.Items, 1)
	require.Equal(t, ExprProperty, q.Return.Items[0].Expr.Kind)
}

func TestParseRelationshipPatternDirected(t *testing.T) {
	q, err := NewParser(`MATCH (a)-[r:KNOWS]->(b) RETURN r`).ParseQuery()
	require.NoError(t, err)
	m := q.Parts[0].Clauses[0].(*MatchClause)
	path := m.Pattern.Paths[0]
	require.Len(t, path.Nodes, 2)
	require.Len(t, path.Rels, 1)
	rel := path.Rels[0]
	require.Equal(t, "r", rel.Variable)
	require.Equal(t, "KNOWS", rel.Type)
	require.Equal(t, RelRight, rel.Direction)
}

func TestParseRelationshipPatternLeftAndUndirected(t *testing.T) {
	q, err := NewParser(`MATCH (a)<-[:LIKES]-(b)-[:FOLLOWS]-(c) RETURN a`).ParseQuery()
	require.NoError(t, err)
	m := q.Parts[0].Clauses[0].(*MatchClause)
	path := m.Pattern.Paths[0]
	require.Equal(t, RelLeft, path.Rels[0].Direction)
	require.Equal(t, RelUndirected, path.Rels[1].Direction)
}

func TestParseVariableLengthRelationship(t *testing.T) {
	q, err := NewParser(`MATCH (a)-[:KNOWS*1..3]->(b) RETURN a`).ParseQuery()
	require.NoError(t, err)
	m := q.Parts[0].Clauses[0].(*MatchClause)
	rel := m.Pattern.Paths[0].Rels[0]
	require.True(t, rel.VarLength)
	require.NotNil(t, rel.MinHops)
	require.Equal(t, 1, *rel.MinHops)
	require.NotNil(t, rel.MaxHops)
	require.Equal(t, 3, *rel.MaxHops)
}

func TestParseWithChainAndOrderByLimit(t *testing.T) {
	q, err := NewParser(`MATCH (n) WITH n, count(n) AS c ORDER BY c DESC LIMIT 5 RETURN n`).ParseQuery()
	require.NoError(t, err)
	require.Len(t, q.Parts, 2)
	with := q.Parts[0].With
	require.NotNil(t, with)
	require.Len(t, with.Items, 2)
	require.Equal(t, "c", with.Items[1].Alias)
	require.Len(t, with.OrderBy, 1)
	require.True(t, with.OrderBy[0].Descending)
	require.NotNil(t, with.Limit)
	require.EqualValues(t, 5, *with.Limit)
}

func TestParsePrecedence(t *testing.T) {
	q, err := NewParser(`RETURN 1 + 2 * 3 = 7 AND NOT false`).ParseQuery()
	require.NoError(t, err)
	top := q.Return.Items[0].Expr
	require.Equal(t, ExprBinary, top.Kind)
	require.Equal(t, OpAnd, top.BinOp)
}

func TestParseMapAndListLiterals(t *testing.T) {
	q, err := NewParser(`CREATE (n:Person {name: "ada", tags: ["a", "b"]})`).ParseQuery()
	require.NoError(t, err)
	cl := q.Parts[0].Clauses[0].(*CreateClause)
	np := cl.Pattern.Paths[0].Nodes[0]
	require.Contains(t, np.Properties, "name")
	require.Contains(t, np.Properties, "tags")
	require.Equal(t, ExprList, np.Properties["tags"].Kind)
}

func TestParseErrorUnexpectedToken(t *testing.T) {
	_, err := NewParser(`MATCH (n) WHERE`).ParseQuery()
	require.Error(t, err)
	var perr *nenerr.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseOptionalMatchDetachDeleteSetRemoveUnwindUsing(t *testing.T) {
	q, err := NewParser(`
		OPTIONAL MATCH (n)
		SET n.age = 30
		REMOVE n.tmp
		UNWIND [1,2,3] AS x
		USING BFS
		DETACH DELETE n
		RETURN n
	`).ParseQuery()
	require.NoError(t, err)
	clauses := q.Parts[0].Clauses
	require.IsType(t, &MatchClause{}, clauses[0])
	require.True(t, clauses[0].(*MatchClause).Optional)
	require.IsType(t, &SetClause{}, clauses[1])
	require.IsType(t, &RemoveClause{}, clauses[2])
	require.IsType(t, &UnwindClause{}, clauses[3])
	require.IsType(t, &UsingClause{}, clauses[4])
	del := clauses[5].(*DeleteClause)
	require.True(t, del.Detach)
}
