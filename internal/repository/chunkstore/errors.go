package chunkstore

// Op names used in Error for diagnostics.
const (
	OpMkdir   = "mkdir"
	OpWrite   = "write"
	OpRead    = "read"
	OpReadDir = "readdir"
	OpRename  = "rename"
	OpRemove  = "remove"
	OpStat    = "stat"
	OpLink    = "symlink"
)

// Error wraps a filesystem failure with the operation and path.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string { return e.Op + " " + e.Path + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
