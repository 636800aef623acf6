package models

import "time"

// AuditEvent is a change-journal entry written to MongoDB after every
// successful mutation.
type AuditEvent struct {
	Entity   string    `bson:"entity" json:"entity"`
	EntityID int64     `bson:"entity_id" json:"entity_id"`
	Actor    string    `bson:"actor" json:"actor"`
	Action   string    `bson:"action" json:"action"`
	At       time.Time `bson:"at" json:"at"`
}

// AccountExport is the JSON snapshot produced by GET /api/account/export.
// Todos includes soft-deleted rows; Deleted marks them.
type AccountExport struct {
	User        User         `json:"user"`
	Todos       []ExportTodo `json:"todos"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// ExportTodo is a Todo with the soft-delete flag made visible.
type ExportTodo struct {
	Todo
	Deleted bool `json:"deleted"`
}
