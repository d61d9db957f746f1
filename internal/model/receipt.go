package model

import "time"

// Receipt mirrors the 'receipts' table. Only the ownership and object-store
// linkage matter here; line items and rendering live outside this service.
type Receipt struct {
	ID        uint64
	UserID    uint64
	Title     string
	ObjectKey string // key of the uploaded scan in object storage
	CreatedAt time.Time
}
