package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one lifecycle transition, written in the same transaction
type AuditLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ActorID    *uuid.UUID `json:"actor_id" db:"actor_id"`
	Action     string     `json:"action" db:"action"`
	Entity     string     `json:"entity" db:"entity"`
	EntityID   uuid.UUID  `json:"entity_id" db:"entity_id"`
	FromStatus string     `json:"from_status" db:"from_status"`
	ToStatus   string     `json:"to_status" db:"to_status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Entities tracked by the audit trail
const (
	EntityProperty = "property"
	EntityRental   = "rental"
	EntitySale     = "sale"
)

// Action constants for audit logs
const (
	ActionRequest    = "REQUEST"
	ActionApprove    = "APPROVE"
	ActionReject     = "REJECT"
	ActionCancel     = "CANCEL"
	ActionUpdate     = "UPDATE"
	ActionExpire     = "EXPIRE"
	ActionSoftDelete = "SOFT_DELETE"
	ActionDelete     = "DELETE"
)

// AuditLogFilters represents filters for querying audit logs
type AuditLogFilters struct {
	Entity   *string    `json:"entity"`
	EntityID *uuid.UUID `json:"entity_id"`
	ActorID  *uuid.UUID `json:"actor_id"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
