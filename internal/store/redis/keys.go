package redis

const (
	// KeyPrefixState is the prefix for persisted core-state blobs
	KeyPrefixState = "scout:state:"
	// KeyExcluded is the set of excluded channel ids
	KeyExcluded = "scout:excluded"
	// KeyHistory is the capped list of executed searches
	KeyHistory = "scout:history"
)

// StateKey returns the Redis key for a state namespace
func StateKey(namespace string) string {
	return KeyPrefixState + namespace
}
