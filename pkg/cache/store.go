package cache

import "fmt"

// Backend names accepted by OpenStore
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// OpenStore creates a store by backend name. path is ignored by the memory
// backend and capacity by the persistent ones; empty paths pick defaults.
func OpenStore(backend, path string, capacity int) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(capacity), nil
	case BackendFile, "":
		return NewFileStore(path), nil
	case BackendSQLite:
		if path == "" {
			p, err := DefaultSQLitePath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (use: memory, file, sqlite)", backend)
	}
}
