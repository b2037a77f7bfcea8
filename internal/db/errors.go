package db

import "errors"

// ErrKeyNotFound signals a missing key.
var ErrKeyNotFound = errors.New("db: key not found")

// Op names the failing command in Error.
const (
	OpPing    = "PING"
	OpHSet    = "HSET"
	OpHGetAll = "HGETALL"
	OpScan    = "SCAN"
	OpDel     = "DEL"
	OpGet     = "GET"
	OpMGet    = "MGET"
	OpSet     = "SET"
)

// Error wraps a driver failure with the command and, when known, the key.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
