package domain

import "time"

// FileInfo describes a file known to a FileSource without reading its bytes.
type FileInfo struct {
	// Path identifies the file within its source.
	Path string

	// Name is the base file name.
	Name string

	// Size is the file size in bytes.
	Size int64

	// ModifiedAt is the last modification time.
	ModifiedAt time.Time
}

// ChangeType represents the type of file change.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed file.
	ChangeDeleted
)

// String returns a lower-case name for logging.
func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange is a change event emitted while watching a source.
type FileChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the affected file.
	Path string
}
