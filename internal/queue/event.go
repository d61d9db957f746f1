// Package queue defines message payloads exchanged over the message broker.
package queue

// StorageCleanupEvent is published after a user or receipt deletion commits.
// It carries the orphaned object keys so the background consumer can delete
// them from object storage. Cleanup is deliberately outside the delete
// transaction: a lost event means an orphaned object, never a broken record.
type StorageCleanupEvent struct {
	UserID      uint64   `json:"user_id"`
	ObjectKeys  []string `json:"object_keys"`
	Reason      string   `json:"reason"` // "user_deleted" | "receipt_deleted"
	RequestedAt string   `json:"requested_at"`
}
