package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the primary key is still zero. Keys are
// generated client side so the same models work on Postgres and sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
