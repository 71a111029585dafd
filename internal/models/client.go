package models

import (
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Phone      string    `json:"phone" db:"phone"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type ClientInput struct {
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	DocumentID *string    `json:"document_id,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
}
