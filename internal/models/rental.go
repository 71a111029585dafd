package models

import (
	"time"

	"github.com/google/uuid"
)

type RentalStatus string

const (
	RentalPending   RentalStatus = "pending"
	RentalActive    RentalStatus = "active"
	RentalFinished  RentalStatus = "finished"
	RentalCancelled RentalStatus = "cancelled"
)

var rentalTransitions = map[RentalStatus][]RentalStatus{
	RentalPending: {RentalActive, RentalCancelled},
	RentalActive:  {RentalFinished, RentalCancelled},
}

func (s RentalStatus) Valid() bool {
	return s == RentalPending || s == RentalActive || s == RentalFinished || s == RentalCancelled
}

// IsTerminal reports whether no further transition is possible
func (s RentalStatus) IsTerminal() bool {
	return s == RentalFinished || s == RentalCancelled
}

// CanTransitionTo reports whether s -> next is a legal lifecycle move
func (s RentalStatus) CanTransitionTo(next RentalStatus) bool {
	for _, allowed := range rentalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Rental struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	PropertyID    uuid.UUID    `json:"property_id" db:"property_id"`
	ClientID      uuid.UUID    `json:"client_id" db:"client_id"`
	StartDate     time.Time    `json:"start_date" db:"start_date"`
	EndDate       time.Time    `json:"end_date" db:"end_date"`
	MonthlyAmount float64      `json:"monthly_amount" db:"monthly_amount"`
	Status        RentalStatus `json:"status" db:"status"`
	Active        bool         `json:"active" db:"active"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// RentalFilter holds listing criteria for rentals
type RentalFilter struct {
	Status          *RentalStatus `json:"status,omitempty"`
	ClientID        *uuid.UUID    `json:"client_id,omitempty"`
	PropertyID      *uuid.UUID    `json:"property_id,omitempty"`
	EndsBefore      *time.Time    `json:"ends_before,omitempty"`
	IncludeInactive bool          `json:"include_inactive,omitempty"`
	Limit           int           `json:"limit,omitempty"`
	Offset          int           `json:"offset,omitempty"`
}

// RentalRequest is the input of a new rental request. ClientID may be nil when
// a client requests for themselves.
type RentalRequest struct {
	PropertyID    uuid.UUID  `json:"property_id"`
	ClientID      *uuid.UUID `json:"client_id,omitempty"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	MonthlyAmount float64    `json:"monthly_amount"`
}

// RentalUpdate carries the staff-editable fields; nil means unchanged
type RentalUpdate struct {
	StartDate     *time.Time    `json:"start_date,omitempty"`
	EndDate       *time.Time    `json:"end_date,omitempty"`
	MonthlyAmount *float64      `json:"monthly_amount,omitempty"`
	Status        *RentalStatus `json:"status,omitempty"`
}
