package models

import (
	"time"

	"github.com/google/uuid"
)

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "available"
	PropertyRented    PropertyStatus = "rented"
	PropertySold      PropertyStatus = "sold"
)

func (s PropertyStatus) Valid() bool {
	return s == PropertyAvailable || s == PropertyRented || s == PropertySold
}

// Property is the aggregate whose status the rental and sale lifecycles drive.
// Version is incremented on every write and checked by the store.
type Property struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Address     string         `json:"address" db:"address"`
	Price       float64        `json:"price" db:"price"`
	Status      PropertyStatus `json:"status" db:"status"`
	Active      bool           `json:"active" db:"active"`
	TypeID      uuid.UUID      `json:"type_id" db:"type_id"`
	AgentID     uuid.UUID      `json:"agent_id" db:"agent_id"`
	Description *string        `json:"description,omitempty" db:"description"`
	SizeM2      *float64       `json:"size_m2,omitempty" db:"size_m2"`
	Version     int64          `json:"version" db:"version"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// PropertyFilter holds listing criteria for properties
type PropertyFilter struct {
	Status          *PropertyStatus `json:"status,omitempty"`
	TypeID          *uuid.UUID      `json:"type_id,omitempty"`
	AgentID         *uuid.UUID      `json:"agent_id,omitempty"`
	IncludeInactive bool            `json:"include_inactive,omitempty"`
	Limit           int             `json:"limit,omitempty"`
	Offset          int             `json:"offset,omitempty"`
}

// PropertyInput is used for create and update. Status is never accepted from callers.
type PropertyInput struct {
	Address     *string    `json:"address,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	TypeID      *uuid.UUID `json:"type_id,omitempty"`
	AgentID     *uuid.UUID `json:"agent_id,omitempty"`
	Description *string    `json:"description,omitempty"`
	SizeM2      *float64   `json:"size_m2,omitempty"`
}
