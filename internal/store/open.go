package store

import "fmt"

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Open returns the Store for backend. target is the SQLite path or the
// Postgres DSN; it is ignored for the memory backend.
func Open(backend, target string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendSQLite:
		return OpenSQLite(target)
	case BackendPostgres:
		if target == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		return OpenPostgres(target)
	default:
		return nil, fmt.Errorf("unknown kv backend %q", backend)
	}
}
