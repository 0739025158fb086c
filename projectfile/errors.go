package projectfile

import "fmt"

// ParseError reports a project document that could not be decoded. The
// application refuses to open the file; nothing else happens.
type ParseError struct {
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("project file: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("project file: %s", e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedVersionError reports a document written by a newer Pointgram
// than this one. Loading fails outright instead of guessing at a best-effort
// parse.
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("project file: unsupported format version %d (newest supported is %d)", e.Version, currentVersion)
}
