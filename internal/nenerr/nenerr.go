// Package nenerr defines the enumerated error taxonomy shared by every
// NenDB component: pools, WAL, snapshot, the GraphDB facade, and the Cypher
// frontend. Errors are plain sentinel values (or thin typed wrappers for the
// two kinds that carry a sub-kind) so callers can match with errors.Is /
// errors.As instead of string comparison.
//
// Propagation policy (see spec.md §7): the pool and WAL layers never log —
// they return one of these errors upward. The GraphDB facade is the
// recovery boundary for WAL I/O; the Cypher layer is the recovery boundary
// for parse/eval errors.
package nenerr

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced directly to callers.
var (
	// ErrPoolExhausted is returned when a pool has no free slot and is at
	// its configured capacity.
	ErrPoolExhausted = errors.New("nendb: pool exhausted")

	// ErrDuplicateID is returned by insert_node when the id is already live.
	ErrDuplicateID = errors.New("nendb: duplicate id")

	// ErrNotFound is returned by lookups/deletes on an absent id or slot.
	ErrNotFound = errors.New("nendb: not found")

	// ErrDanglingEndpoint is returned when an edge references a node id
	// that does not currently resolve in the id index.
	ErrDanglingEndpoint = errors.New("nendb: dangling endpoint")

	// ErrHasIncidentEdges is returned by a non-DETACH delete_node when the
	// node still has incident edges.
	ErrHasIncidentEdges = errors.New("nendb: node has incident edges")

	// ErrWalIOError marks a WAL write/flush/sync failure. The WAL is
	// considered unhealthy after this until the database is reopened.
	ErrWalIOError = errors.New("nendb: wal io error")

	// ErrWalCorrupt marks a WAL header magic/version mismatch or a
	// structurally invalid entry that recovery could not discard cleanly.
	ErrWalCorrupt = errors.New("nendb: wal corrupt")

	// ErrUnknownOp is returned when the WAL reader encounters an op code it
	// does not recognize; per spec.md §6 this must stop recovery, not skip
	// the entry.
	ErrUnknownOp = errors.New("nendb: unknown wal op code")

	// ErrAlreadyLocked is returned by the deadlock detector when a thread
	// attempts to reacquire a lock id it already holds.
	ErrAlreadyLocked = errors.New("nendb: lock already held (reentrant acquisition)")

	// ErrReadOnly is returned when a mutation is attempted on a database
	// opened read-only.
	ErrReadOnly = errors.New("nendb: database is read-only")

	// ErrNotEmpty is returned by restore_from_snapshot when the target
	// pools are not freshly initialized or explicitly cleared.
	ErrNotEmpty = errors.New("nendb: database not empty")

	// ErrUnsupported is a generic "unsupported operation" sentinel. The
	// Cypher executor does not return it: grammar that parses but has no
	// execution semantics (variable-length relationships) is reported as a
	// *EvalError of kind Unsupported.
	ErrUnsupported = errors.New("nendb: unsupported")

	// ErrClosed is returned when an operation is attempted on a database
	// or WAL handle that has already been closed.
	ErrClosed = errors.New("nendb: closed")
)

// ParseErrorKind enumerates the Cypher parser's error kinds (spec.md §4.6).
type ParseErrorKind int

const (
	UnexpectedToken ParseErrorKind = iota
	ExpectedKeyword
	ExpectedIdentifier
	ExpectedInteger
	ExpectedLBrace
	ExpectedRBrace
	ExpectedRParen
	ExpectedRBrack
	ExpectedColon
	ExpectedComma
	ExpectedDot
	ExpectedEq
	ExpectedMinus
	ExpectedPropertyKey
	ExpectedLabel
	ExpectedType
	ExpectedMapKey
	UnexpectedExpr
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "UnexpectedToken"
	case ExpectedKeyword:
		return "ExpectedKeyword"
	case ExpectedIdentifier:
		return "ExpectedIdentifier"
	case ExpectedInteger:
		return "ExpectedInteger"
	case ExpectedLBrace:
		return "ExpectedLBrace"
	case ExpectedRBrace:
		return "ExpectedRBrace"
	case ExpectedRParen:
		return "ExpectedRParen"
	case ExpectedRBrack:
		return "ExpectedRBrack"
	case ExpectedColon:
		return "ExpectedColon"
	case ExpectedComma:
		return "ExpectedComma"
	case ExpectedDot:
		return "ExpectedDot"
	case ExpectedEq:
		return "ExpectedEq"
	case ExpectedMinus:
		return "ExpectedMinus"
	case ExpectedPropertyKey:
		return "ExpectedPropertyKey"
	case ExpectedLabel:
		return "ExpectedLabel"
	case ExpectedType:
		return "ExpectedType"
	case ExpectedMapKey:
		return "ExpectedMapKey"
	case UnexpectedExpr:
		return "UnexpectedExpr"
	default:
		return "ParseError"
	}
}

// ErrParse is the sentinel matched by errors.Is(err, nenerr.ErrParse) for any
// ParseError, regardless of kind.
var ErrParse = errors.New("nendb: parse error")

// ParseError carries a parser error kind plus the source position and a
// human-readable message. Position is a byte offset into the query string.
type ParseError struct {
	Kind    ParseErrorKind
	Pos     int
	Line    int
	Col     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s (%s)", e.Line, e.Col, e.Message, e.Kind)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// EvalErrorKind enumerates the executor's evaluation error kinds (spec.md §7).
type EvalErrorKind int

const (
	TypeMismatch EvalErrorKind = iota
	DivByZero
	UnboundVariable
	UnknownFunction
	UnknownProperty
	Unsupported
)

func (k EvalErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case DivByZero:
		return "DivByZero"
	case UnboundVariable:
		return "UnboundVariable"
	case UnknownFunction:
		return "UnknownFunction"
	case UnknownProperty:
		return "UnknownProperty"
	case Unsupported:
		return "Unsupported"
	default:
		return "EvalError"
	}
}

// ErrEval is the sentinel matched by errors.Is(err, nenerr.ErrEval) for any
// EvalError, regardless of kind.
var ErrEval = errors.New("nendb: evaluation error")

// EvalError is returned when query evaluation fails after parsing succeeded.
// Per spec.md §4.7, already-committed writes from earlier parts of the query
// are not rolled back by the executor itself.
type EvalError struct {
	Kind    EvalErrorKind
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("eval error: %s: %s", e.Kind, e.Message)
}

func (e *EvalError) Unwrap() error { return ErrEval }

// NewParseError is a small constructor to keep call sites in the lexer/
// parser terse.
func NewParseError(kind ParseErrorKind, pos, line, col int, msg string) *ParseError {
	return &ParseError{Kind: kind, Pos: pos, Line: line, Col: col, Message: msg}
}

// NewEvalError is a small constructor mirroring NewParseError.
func NewEvalError(kind EvalErrorKind, msg string) *EvalError {
	return &EvalError{Kind: kind, Message: msg}
}
