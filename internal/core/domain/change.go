package domain

// ChangeType classifies a change to a watched file.
type ChangeType string

// Change types reported by a watcher.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// String returns the string representation.
func (c ChangeType) String() string {
	return string(c)
}

// FileChange is a single change to a document file.
type FileChange struct {
	Type ChangeType
	Path string
}

// DocumentID returns the id the changed file is indexed under.
func (c FileChange) DocumentID() string {
	return DocumentIDFromPath(c.Path)
}
