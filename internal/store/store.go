// Package store defines the narrow persistence contract the core components
// depend on. State is saved as opaque blobs per namespace; anything beyond
// per-namespace atomicity is the caller's responsibility.
package store

import "context"

// Namespaces used by the core components.
const (
	NamespaceKeyPool    = "keypool"
	NamespacePageTokens = "pagetokens"
)

// KeyValueStore persists opaque state blobs by namespace.
type KeyValueStore interface {
	// Get returns the blob for a namespace, or (nil, nil) when absent.
	Get(ctx context.Context, namespace string) ([]byte, error)
	// Put overwrites the blob for a namespace.
	Put(ctx context.Context, namespace string, data []byte) error
}
