package cypher

import (
	"strconv"
	"strings"

	"github.com/nen-co/nendb/internal/nenerr"
)

// Parser is a recursive-descent parser with one token of lookahead, exactly
// as spec.md §4.6 specifies. It never backtracks: every production either
// commits or reports a *nenerr.ParseError.
type Parser struct {
	lex  *Lexer
	tok  Token
	next Token
}

// NewParser returns a Parser ready to parse query.
func NewParser(query string) *Parser {
	p := &Parser{lex: NewLexer(query)}
	p.tok = p.lex.Next()
	p.next = p.lex.Next()
	return p
}

func (p *Parser) advance() {
	p.tok = p.next
	p.next = p.lex.Next()
}

func (p *Parser) err(kind nenerr.ParseErrorKind, msg string) error {
	return nenerr.NewParseError(kind, p.tok.Pos, p.tok.Line, p.tok.Col, msg)
}

func (p *Parser) isKeyword(kw Keyword) bool {
	return p.tok.Kind == TokKeyword && p.tok.Keyword == kw
}

func (p *Parser) expectKeyword(kw Keyword) error {
	if !p.isKeyword(kw) {
		return p.err(nenerr.ExpectedKeyword, "expected "+string(kw))
	}
	p.advance()
	return nil
}

func (p *Parser) expect(kind TokenKind, errKind nenerr.ParseErrorKind, msg string) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, p.err(errKind, msg)
	}
	t := p.tok
	p.advance()
	return t, nil
}

func (p *Parser) expectIdent() (string, error) {
	t, err := p.expect(TokIdent, nenerr.ExpectedIdentifier, "expected identifier")
	if err != nil {
		return "", err
	}
	return t.Lexeme, nil
}

// ParseQuery parses a full query: Part (WITH Part)* [Return].
func (p *Parser) ParseQuery() (*Query, error) {
	q := &Query{}
	for {
		part, withClause, err := p.parsePart()
		if err != nil {
			return nil, err
		}
		q.Parts = append(q.Parts, part)
		if withClause != nil {
			part.With = withClause
			continue
		}
		break
	}

	if p.isKeyword(KwReturn) {
		ret, err := p.parseReturnLike(true)
		if err != nil {
			return nil, err
		}
		q.Return = (*ReturnClause)(ret)
	}

	if p.tok.Kind != TokEOF {
		return nil, p.err(nenerr.UnexpectedToken, "unexpected trailing input")
	}
	return q, nil
}

// parsePart consumes clauses until it hits WITH, RETURN, or EOF. If it
// stops at WITH, the with-projection is parsed and returned so the caller
// can chain into the next Part.
func (p *Parser) parsePart() (*Part, *WithClause, error) {
	part := &Part{}
	for {
		if p.isKeyword(KwWith) {
			p.advance()
			w, err := p.parseReturnLike(false)
			if err != nil {
				return nil, nil, err
			}
			return part, (*WithClause)(w), nil
		}
		if p.isKeyword(KwReturn) || p.tok.Kind == TokEOF {
			return part, nil, nil
		}

		clause, err := p.parseClause()
		if err != nil {
			return nil, nil, err
		}
		part.Clauses = append(part.Clauses, clause)
	}
}

func (p *Parser) parseClause() (Clause, error) {
	switch {
	case p.isKeyword(KwOptional):
		p.advance()
		if err := p.expectKeyword(KwMatch); err != nil {
			return nil, err
		}
		return p.parseMatch(true)
	case p.isKeyword(KwMatch):
		p.advance()
		return p.parseMatch(false)
	case p.isKeyword(KwCreate):
		p.advance()
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		return &CreateClause{Pattern: pat}, nil
	case p.isKeyword(KwMerge):
		p.advance()
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		return &MergeClause{Pattern: pat}, nil
	case p.isKeyword(KwSet):
		p.advance()
		return p.parseSet()
	case p.isKeyword(KwDetach):
		p.advance()
		if err := p.expectKeyword(KwDelete); err != nil {
			return nil, err
		}
		return p.parseDelete(true)
	case p.isKeyword(KwDelete):
		p.advance()
		return p.parseDelete(false)
	case p.isKeyword(KwUnwind):
		p.advance()
		return p.parseUnwind()
	case p.isKeyword(KwRemove):
		p.advance()
		return p.parseRemove()
	case p.isKeyword(KwUsing):
		p.advance()
		return p.parseUsing()
	default:
		return nil, p.err(nenerr.UnexpectedToken, "expected a clause")
	}
}

func (p *Parser) parseMatch(optional bool) (Clause, error) {
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	var where *Expr
	if p.isKeyword(KwWhere) {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return &MatchClause{Optional: optional, Pattern: pat, Where: where}, nil
}

func (p *Parser) parseSet() (Clause, error) {
	items := []SetItem{}
	for {
		v, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokDot, nenerr.ExpectedDot, "expected '.' in SET item"); err != nil {
			return nil, err
		}
		key, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokEq, nenerr.ExpectedEq, "expected '=' in SET item"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, SetItem{Variable: v, Key: key, Value: val})
		if p.tok.Kind != TokComma {
			break
		}
		p.advance()
	}
	return &SetClause{Items: items}, nil
}

func (p *Parser) parseDelete(detach bool) (Clause, error) {
	vars := []*Expr{}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		vars = append(vars, e)
		if p.tok.Kind != TokComma {
			break
		}
		p.advance()
	}
	return &DeleteClause{Detach: detach, Variables: vars}, nil
}

func (p *Parser) parseUnwind() (Clause, error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(KwAs); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &UnwindClause{Expr: e, As: name}, nil
}

func (p *Parser) parseRemove() (Clause, error) {
	items := []PropSelector{}
	for {
		v, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokDot, nenerr.ExpectedDot, "expected '.' in REMOVE item"); err != nil {
			return nil, err
		}
		key, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		items = append(items, PropSelector{Variable: v, Key: key})
		if p.tok.Kind != TokComma {
			break
		}
		p.advance()
	}
	return &RemoveClause{Items: items}, nil
}

var usingAlgorithms = map[string]bool{
	"BFS": true, "DFS": true, "DIJKSTRA": true, "PAGERANK": true, "CENTRALITY": true,
}

func (p *Parser) parseUsing() (Clause, error) {
	if p.tok.Kind != TokIdent {
		return nil, p.err(nenerr.ExpectedIdentifier, "expected a traversal algorithm name")
	}
	name := strings.ToUpper(p.tok.Lexeme)
	if !usingAlgorithms[name] {
		return nil, p.err(nenerr.UnexpectedToken, "unrecognized USING algorithm: "+p.tok.Lexeme)
	}
	p.advance()
	return &UsingClause{Algorithm: name}, nil
}

// parseReturnLike parses the shared WITH/RETURN tail: [DISTINCT]
// Item(,Item)* [ORDER BY ...] [SKIP n] [LIMIT n]. requireReturn controls
// whether the RETURN keyword itself is consumed here (it already was for
// WITH by the caller).
func (p *Parser) parseReturnLike(requireReturn bool) (*ReturnClause, error) {
	if requireReturn {
		if err := p.expectKeyword(KwReturn); err != nil {
			return nil, err
		}
	}
	rc := &ReturnClause{}
	if p.isKeyword(KwDistinct) {
		rc.Distinct = true
		p.advance()
	}

	for {
		item, err := p.parseReturnItem()
		if err != nil {
			return nil, err
		}
		rc.Items = append(rc.Items, item)
		if p.tok.Kind != TokComma {
			break
		}
		p.advance()
	}

	if p.isKeyword(KwOrder) {
		p.advance()
		if err := p.expectKeyword(KwBy); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			desc := false
			if p.isKeyword(KwAsc) {
				p.advance()
			} else if p.isKeyword(KwDesc) {
				desc = true
				p.advance()
			}
			rc.OrderBy = append(rc.OrderBy, SortItem{Expr: e, Descending: desc})
			if p.tok.Kind != TokComma {
				break
			}
			p.advance()
		}
	}

	if p.isKeyword(KwSkip) {
		p.advance()
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		rc.Skip = &n
	}
	if p.isKeyword(KwLimit) {
		p.advance()
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		rc.Limit = &n
	}
	return rc, nil
}

func (p *Parser) parseIntLiteral() (int64, error) {
	t, err := p.expect(TokInt, nenerr.ExpectedInteger, "expected an integer")
	if err != nil {
		return 0, err
	}
	n, perr := strconv.ParseInt(t.Lexeme, 10, 64)
	if perr != nil {
		return 0, nenerr.NewParseError(nenerr.ExpectedInteger, t.Pos, t.Line, t.Col, "integer literal out of range")
	}
	return n, nil
}

func (p *Parser) parseReturnItem() (ReturnItem, error) {
	e, err := p.parseExpr()
	if err != nil {
		return ReturnItem{}, err
	}
	item := ReturnItem{Expr: e}
	if p.isKeyword(KwAs) {
		p.advance()
		alias, err := p.expectIdent()
		if err != nil {
			return ReturnItem{}, err
		}
		item.Alias = alias
	}
	return item, nil
}

// parsePattern parses Path (, Path)*.
func (p *Parser) parsePattern() (*Pattern, error) {
	pat := &Pattern{}
	for {
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		pat.Paths = append(pat.Paths, path)
		if p.tok.Kind != TokComma {
			break
		}
		p.advance()
	}
	return pat, nil
}

func (p *Parser) parsePath() (*Path, error) {
	path := &Path{}
	node, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	path.Nodes = append(path.Nodes, node)

	for p.tok.Kind == TokMinus || p.tok.Kind == TokLt {
		rel, err := p.parseRelPattern()
		if err != nil {
			return nil, err
		}
		path.Rels = append(path.Rels, rel)
		next, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		path.Nodes = append(path.Nodes, next)
	}
	return path, nil
}

// parseNodePattern parses `( [Ident] (: Ident)* [MapLit] )`.
func (p *Parser) parseNodePattern() (*NodePattern, error) {
	if _, err := p.expect(TokLParen, nenerr.ExpectedRParen, "expected '(' to start a node pattern"); err != nil {
		return nil, err
	}
	np := &NodePattern{Properties: map[string]*Expr{}}
	if p.tok.Kind == TokIdent {
		np.Variable = p.tok.Lexeme
		p.advance()
	}
	for p.tok.Kind == TokColon {
		p.advance()
		label, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		np.Labels = append(np.Labels, label)
	}
	if p.tok.Kind == TokLBrace {
		m, err := p.parseMapLiteral()
		if err != nil {
			return nil, err
		}
		np.Properties = m
	}
	if _, err := p.expect(TokRParen, nenerr.ExpectedRParen, "expected ')' to close a node pattern"); err != nil {
		return nil, err
	}
	return np, nil
}

// parseRelPattern parses one of: -[ ... ]->, <-[ ... ]-, -[ ... ]-.
func (p *Parser) parseRelPattern() (*RelPattern, error) {
	leftArrow := false
	if p.tok.Kind == TokLt {
		leftArrow = true
		p.advance()
	}
	if _, err := p.expect(TokMinus, nenerr.ExpectedMinus, "expected '-' in relationship pattern"); err != nil {
		return nil, err
	}

	rel := &RelPattern{Direction: RelUndirected}
	if p.tok.Kind == TokLBrack {
		p.advance()
		if p.tok.Kind == TokIdent {
			rel.Variable = p.tok.Lexeme
			p.advance()
		}
		if p.tok.Kind == TokColon {
			p.advance()
			t, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			rel.Type = t
		}
		if p.tok.Kind == TokStar {
			p.advance()
			rel.VarLength = true
			if err := p.parseVarLengthRange(rel); err != nil {
				return nil, err
			}
		}
		if p.tok.Kind == TokLBrace {
			m, err := p.parseMapLiteral()
			if err != nil {
				return nil, err
			}
			rel.Properties = m
		}
		if _, err := p.expect(TokRBrack, nenerr.ExpectedRBrack, "expected ']' to close a relationship pattern"); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokMinus, nenerr.ExpectedMinus, "expected '-' in relationship pattern"); err != nil {
		return nil, err
	}

	rightArrow := false
	if p.tok.Kind == TokGt {
		rightArrow = true
		p.advance()
	}

	switch {
	case leftArrow && !rightArrow:
		rel.Direction = RelLeft
	case rightArrow && !leftArrow:
		rel.Direction = RelRight
	default:
		rel.Direction = RelUndirected
	}
	return rel, nil
}

// parseVarLengthRange parses the optional `min..max` following a bare `*`.
func (p *Parser) parseVarLengthRange(rel *RelPattern) error {
	if p.tok.Kind != TokInt && p.tok.Kind != TokDotDot {
		return nil
	}
	if p.tok.Kind == TokInt {
		n, err := p.parseIntLiteral()
		if err != nil {
			return err
		}
		v := int(n)
		rel.MinHops = &v
	}
	if p.tok.Kind == TokDotDot {
		p.advance()
		if p.tok.Kind == TokInt {
			n, err := p.parseIntLiteral()
			if err != nil {
				return err
			}
			v := int(n)
			rel.MaxHops = &v
		}
	}
	return nil
}

func (p *Parser) parseMapLiteral() (map[string]*Expr, error) {
	if _, err := p.expect(TokLBrace, nenerr.ExpectedLBrace, "expected '{' to start a map literal"); err != nil {
		return nil, err
	}
	m := map[string]*Expr{}
	if p.tok.Kind == TokRBrace {
		p.advance()
		return m, nil
	}
	for {
		key, err := p.expectMapKey()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon, nenerr.ExpectedColon, "expected ':' in map literal"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m[key] = val
		if p.tok.Kind != TokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokRBrace, nenerr.ExpectedRBrace, "expected '}' to close a map literal"); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Parser) expectMapKey() (string, error) {
	if p.tok.Kind != TokIdent && p.tok.Kind != TokString {
		return "", p.err(nenerr.ExpectedMapKey, "expected a map key")
	}
	t := p.tok
	p.advance()
	if t.Kind == TokString {
		return unquote(t.Lexeme), nil
	}
	return t.Lexeme, nil
}

// --- Expressions, by descending precedence: OR, AND, NOT, comparison,
// additive, multiplicative, unary, primary (spec.md §4.6).

func (p *Parser) parseExpr() (*Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (*Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword(KwOr) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, BinOp: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (*Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword(KwAnd) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, BinOp: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (*Expr, error) {
	if p.isKeyword(KwNot) {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprUnary, UnaryOp: UnaryNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (*Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	switch {
	case p.isKeyword(KwIn):
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprBinary, BinOp: OpIn, Left: left, Right: right}, nil
	case p.isKeyword(KwIs):
		p.advance()
		negate := false
		if p.isKeyword(KwNot) {
			negate = true
			p.advance()
		}
		if err := p.expectKeyword(KwNull); err != nil {
			return nil, err
		}
		e := &Expr{Kind: ExprBinary, BinOp: OpIs, Left: left, Right: &Expr{Kind: ExprNull}}
		if negate {
			return &Expr{Kind: ExprUnary, UnaryOp: UnaryNot, Operand: e}, nil
		}
		return e, nil
	}

	op, ok := cmpOpFor(p.tok.Kind)
	if !ok {
		return left, nil
	}
	p.advance()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprBinary, BinOp: op, Left: left, Right: right}, nil
}

func cmpOpFor(k TokenKind) (BinOp, bool) {
	switch k {
	case TokEq:
		return OpEq, true
	case TokNeq:
		return OpNeq, true
	case TokLt:
		return OpLt, true
	case TokLe:
		return OpLe, true
	case TokGt:
		return OpGt, true
	case TokGe:
		return OpGe, true
	default:
		return 0, false
	}
}

func (p *Parser) parseAdditive() (*Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokPlus || p.tok.Kind == TokMinus {
		op := OpAdd
		if p.tok.Kind == TokMinus {
			op = OpSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, BinOp: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (*Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokStar || p.tok.Kind == TokSlash || p.tok.Kind == TokPercent {
		var op BinOp
		switch p.tok.Kind {
		case TokStar:
			op = OpMul
		case TokSlash:
			op = OpDiv
		default:
			op = OpMod
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, BinOp: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (*Expr, error) {
	if p.tok.Kind == TokMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprUnary, UnaryOp: UnaryNeg, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*Expr, error) {
	switch p.tok.Kind {
	case TokInt:
		n, err := strconv.ParseInt(p.tok.Lexeme, 10, 64)
		if err != nil {
			return nil, p.err(nenerr.ExpectedInteger, "integer literal out of range")
		}
		p.advance()
		return &Expr{Kind: ExprInt, IntVal: n}, nil
	case TokFloat:
		f, err := strconv.ParseFloat(p.tok.Lexeme, 64)
		if err != nil {
			return nil, p.err(nenerr.UnexpectedExpr, "invalid float literal")
		}
		p.advance()
		return &Expr{Kind: ExprFloat, FloatVal: f}, nil
	case TokString:
		s := unquote(p.tok.Lexeme)
		p.advance()
		return &Expr{Kind: ExprString, StrVal: s}, nil
	case TokKeyword:
		switch p.tok.Keyword {
		case KwTrue:
			p.advance()
			return &Expr{Kind: ExprBool, BoolVal: true}, nil
		case KwFalse:
			p.advance()
			return &Expr{Kind: ExprBool, BoolVal: false}, nil
		case KwNull:
			p.advance()
			return &Expr{Kind: ExprNull}, nil
		}
		return nil, p.err(nenerr.UnexpectedExpr, "unexpected keyword in expression")
	case TokLBrace:
		m, err := p.parseMapLiteral()
		if err != nil {
			return nil, err
		}
		entries := make([]MapEnt, 0, len(m))
		for k, v := range m {
			entries = append(entries, MapEnt{Key: k, Value: v})
		}
		return &Expr{Kind: ExprMap, MapVal: entries}, nil
	case TokLBrack:
		return p.parseListLiteral()
	case TokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, nenerr.ExpectedRParen, "expected ')'"); err != nil {
			return nil, err
		}
		return e, nil
	case TokIdent:
		return p.parseIdentOrCallOrProperty()
	default:
		return nil, p.err(nenerr.UnexpectedToken, "expected an expression")
	}
}

func (p *Parser) parseListLiteral() (*Expr, error) {
	if _, err := p.expect(TokLBrack, nenerr.ExpectedRBrack, "expected '['"); err != nil {
		return nil, err
	}
	list := &Expr{Kind: ExprList}
	if p.tok.Kind == TokRBrack {
		p.advance()
		return list, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.ListVal = append(list.ListVal, e)
		if p.tok.Kind != TokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokRBrack, nenerr.ExpectedRBrack, "expected ']'"); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseIdentOrCallOrProperty() (*Expr, error) {
	name := p.tok.Lexeme
	p.advance()

	if p.tok.Kind == TokLParen {
		p.advance()
		call := &Expr{Kind: ExprFnCall, FnName: name}
		if p.tok.Kind != TokRParen {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
				if p.tok.Kind != TokComma {
					break
				}
				p.advance()
			}
		}
		if _, err := p.expect(TokRParen, nenerr.ExpectedRParen, "expected ')' to close function call"); err != nil {
			return nil, err
		}
		return call, nil
	}

	expr := &Expr{Kind: ExprIdent, Ident: name}
	for p.tok.Kind == TokDot {
		p.advance()
		key, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		expr = &Expr{Kind: ExprProperty, Target: expr, Key: key}
	}
	return expr, nil
}

// unquote strips the surrounding quote characters and resolves backslash
// escapes from a raw string lexeme (spec.md §4.5).
func unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return ""
	}
	body := lexeme[1 : len(lexeme)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(body[i])
	}
	return b.String()
}
