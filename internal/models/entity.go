package models

import "time"

// Entity carries the bookkeeping fields shared by every persisted record.
// The store stamps CreatedAt/UpdatedAt and flips IsDeleted; nothing else
// writes these fields.
type Entity struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsDeleted bool      `json:"-"`
}
