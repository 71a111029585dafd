// Package authz holds the static table of which roles may run which operation.
// Ownership of client-scoped records is checked by the services.
package authz

import (
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"

	"github.com/google/uuid"
)

type Operation string

const (
	PropertyList       Operation = "property:list"
	PropertyRead       Operation = "property:read"
	PropertyCreate     Operation = "property:create"
	PropertyUpdate     Operation = "property:update"
	PropertyDeactivate Operation = "property:deactivate"
	PropertyDelete     Operation = "property:delete"

	PropertyTypeList   Operation = "property_type:list"
	PropertyTypeManage Operation = "property_type:manage"
	PropertyTypeDelete Operation = "property_type:delete"

	RentalList         Operation = "rental:list"
	RentalListByClient Operation = "rental:list_by_client"
	RentalRead         Operation = "rental:read"
	RentalRequest      Operation = "rental:request"
	RentalApprove      Operation = "rental:approve"
	RentalReject       Operation = "rental:reject"
	RentalUpdate       Operation = "rental:update"
	RentalCancel       Operation = "rental:cancel"
	RentalDelete       Operation = "rental:delete"

	SaleList         Operation = "sale:list"
	SaleListByClient Operation = "sale:list_by_client"
	SaleRead         Operation = "sale:read"
	SaleRequest      Operation = "sale:request"
	SaleApprove      Operation = "sale:approve"
	SaleReject       Operation = "sale:reject"
	SaleUpdate       Operation = "sale:update"
	SaleCancel       Operation = "sale:cancel"
	SaleDelete       Operation = "sale:delete"

	ClientList       Operation = "client:list"
	ClientRead       Operation = "client:read"
	ClientCreate     Operation = "client:create"
	ClientUpdate     Operation = "client:update"
	ClientDeactivate Operation = "client:deactivate"

	UserList       Operation = "user:list"
	UserRead       Operation = "user:read"
	UserCreate     Operation = "user:create"
	UserUpdate     Operation = "user:update"
	UserDeactivate Operation = "user:deactivate"
	UserRestore    Operation = "user:restore"
	UserDelete     Operation = "user:delete"

	DocumentRental Operation = "document:rental"
	DocumentSale   Operation = "document:sale"

	AuditList Operation = "audit:list"

	JobRun Operation = "job:run"
)

var (
	everyone  = []models.Role{models.RoleAdmin, models.RoleAgent, models.RoleClient}
	staff     = []models.Role{models.RoleAdmin, models.RoleAgent}
	adminOnly = []models.Role{models.RoleAdmin}
)

var table = map[Operation][]models.Role{
	PropertyList:       everyone,
	PropertyRead:       everyone,
	PropertyCreate:     staff,
	PropertyUpdate:     staff,
	PropertyDeactivate: staff,
	PropertyDelete:     adminOnly,

	PropertyTypeList:   everyone,
	PropertyTypeManage: adminOnly,
	PropertyTypeDelete: adminOnly,

	RentalList:         staff,
	RentalListByClient: everyone,
	RentalRead:         everyone,
	RentalRequest:      everyone,
	RentalApprove:      staff,
	RentalReject:       staff,
	RentalUpdate:       staff,
	RentalCancel:       everyone,
	RentalDelete:       adminOnly,

	SaleList:         staff,
	SaleListByClient: everyone,
	SaleRead:         everyone,
	SaleRequest:      everyone,
	SaleApprove:      staff,
	SaleReject:       staff,
	SaleUpdate:       staff,
	SaleCancel:       everyone,
	SaleDelete:       adminOnly,

	ClientList:       staff,
	ClientRead:       everyone,
	ClientCreate:     staff,
	ClientUpdate:     everyone,
	ClientDeactivate: staff,

	UserList:       adminOnly,
	UserRead:       everyone,
	UserCreate:     adminOnly,
	UserUpdate:     everyone,
	UserDeactivate: adminOnly,
	UserRestore:    adminOnly,
	UserDelete:     adminOnly,

	DocumentRental: everyone,
	DocumentSale:   everyone,

	AuditList: adminOnly,

	JobRun: adminOnly,
}

// Allowed reports whether role may run op. Unknown operations are denied.
func Allowed(role models.Role, op Operation) bool {
	for _, r := range table[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Check returns a ForbiddenError when the actor's role may not run op
func Check(actor models.Actor, op Operation) error {
	if !Allowed(actor.Role, op) {
		return common.NewForbiddenError("Insufficient permissions")
	}
	return nil
}

// RequireOwner lets staff through and requires a client caller to own the record
func RequireOwner(actor models.Actor, ownerUserID uuid.UUID) error {
	if actor.IsStaff() {
		return nil
	}
	if ownerUserID != actor.UserID {
		return common.NewForbiddenError("You can only access your own records")
	}
	return nil
}
