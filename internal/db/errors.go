package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound    = errors.New("db: key not found")
	ErrClosed         = errors.New("db: index closed")
	ErrTooManyClauses = errors.New("db: too many clauses")
	ErrUnsupported    = errors.New("db: unsupported query node")
)

// Op constants name the failing operation for error context.
const (
	OpOpen     = "OPEN"
	OpSnapshot = "SNAPSHOT"
	OpSearch   = "SEARCH"
	OpBatch    = "BATCH"
	OpClear    = "CLEAR"
	OpOptimize = "OPTIMIZE"
	OpDocument = "DOCUMENT"
	OpDel      = "DEL"
	OpHGetAll  = "HGETALL"
	OpHSet     = "HSET"
	OpScan     = "SCAN"
	OpGet      = "GET"
	OpSet      = "SET"
	OpIncr     = "INCR"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
