package treestore

import "github.com/google/uuid"

// NewPushKey returns a unique key whose lexical order follows creation order.
// UUIDv7 embeds a millisecond timestamp plus a per-process sequence, so keys
// generated by one process are strictly increasing.
func NewPushKey() string {
	return uuid.Must(uuid.NewV7()).String()
}
