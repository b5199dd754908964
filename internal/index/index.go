package index

// LogIndex defines the interface for log indexing operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type LogIndex interface {
	UpsertLog(r LogRow) error
	DeleteLog(id string) error
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies LogIndex at compile time.
var _ LogIndex = (*DB)(nil)
