package models

import (
	"time"

	"github.com/google/uuid"
)

type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleFinalized SaleStatus = "finalized"
	SaleCancelled SaleStatus = "cancelled"
)

var saleTransitions = map[SaleStatus][]SaleStatus{
	SalePending:   {SaleFinalized, SaleCancelled},
	SaleFinalized: {SaleCancelled},
}

func (s SaleStatus) Valid() bool {
	return s == SalePending || s == SaleFinalized || s == SaleCancelled
}

func (s SaleStatus) CanTransitionTo(next SaleStatus) bool {
	for _, allowed := range saleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Sale struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	PropertyID  uuid.UUID  `json:"property_id" db:"property_id"`
	ClientID    uuid.UUID  `json:"client_id" db:"client_id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"` // issuing user
	SaleDate    time.Time  `json:"sale_date" db:"sale_date"`
	TotalAmount float64    `json:"total_amount" db:"total_amount"`
	Status      SaleStatus `json:"status" db:"status"`
	Active      bool       `json:"active" db:"active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// SaleFilter holds listing criteria for sales
type SaleFilter struct {
	Status          *SaleStatus `json:"status,omitempty"`
	ClientID        *uuid.UUID  `json:"client_id,omitempty"`
	PropertyID      *uuid.UUID  `json:"property_id,omitempty"`
	IncludeInactive bool        `json:"include_inactive,omitempty"`
	Limit           int         `json:"limit,omitempty"`
	Offset          int         `json:"offset,omitempty"`
}

// SaleRequest is the input of a new sale request
type SaleRequest struct {
	PropertyID  uuid.UUID  `json:"property_id"`
	ClientID    *uuid.UUID `json:"client_id,omitempty"`
	SaleDate    *time.Time `json:"sale_date,omitempty"`
	TotalAmount float64    `json:"total_amount"`
}

type SaleUpdate struct {
	SaleDate    *time.Time  `json:"sale_date,omitempty"`
	TotalAmount *float64    `json:"total_amount,omitempty"`
	Status      *SaleStatus `json:"status,omitempty"`
}
