// Package auth decides whether an actor's role may invoke an operation.
//
// The gate is a pure predicate: it never caches, never errors and never
// looks up the role on its own. Callers thread the role explicitly and map a
// denial to whatever control decision fits (HTTP 401/403, a redirect, a
// disabled button).
package auth

import (
	"fmt"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/domain/models"
)

// CanAccess reports whether role is admitted by allowed. An empty allowed set
// admits any known role; an unknown or empty role is always denied.
func CanAccess(role models.Role, allowed []models.Role) bool {
	if !role.Valid() {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}

// Operation names a guarded action together with the roles allowed to run it.
type Operation struct {
	Name    string
	Allowed []models.Role
}

// Permits reports whether actor may run op.
func (op Operation) Permits(actor models.Actor) bool {
	return CanAccess(actor.Role, op.Allowed)
}

// Require returns an error wrapping apperr.ErrPermissionDenied when actor may
// not run op.
func Require(actor models.Actor, op Operation) error {
	if op.Permits(actor) {
		return nil
	}
	return fmt.Errorf("%s denied for role %q: %w", op.Name, actor.Role, apperr.ErrPermissionDenied)
}

// Operations guarded by the board. Empty Allowed means any authenticated
// role.
var (
	OpViewBoard     = Operation{Name: "orders:view", Allowed: []models.Role{models.RoleAdmin, models.RoleDigitador}}
	OpManageOrders  = Operation{Name: "orders:write", Allowed: []models.Role{models.RoleAdmin, models.RoleDigitador}}
	OpWeigh         = Operation{Name: "records:write", Allowed: []models.Role{models.RoleAdmin, models.RolePesador}}
	OpCapture       = Operation{Name: "capture:use", Allowed: []models.Role{models.RoleAdmin, models.RolePesador}}
	OpViewRecords   = Operation{Name: "records:view"}
	OpDeleteRecords = Operation{Name: "records:delete", Allowed: []models.Role{models.RoleAdmin}}
	OpViewCatalog   = Operation{Name: "catalog:view"}
	OpManageCatalog = Operation{Name: "catalog:write", Allowed: []models.Role{models.RoleAdmin}}
	OpViewSettings  = Operation{Name: "settings:view"}
	OpEditSettings  = Operation{Name: "settings:write", Allowed: []models.Role{models.RoleAdmin}}
	OpViewInventory = Operation{Name: "inventory:view"}
	OpEditInventory = Operation{Name: "inventory:write", Allowed: []models.Role{models.RoleAdmin}}
	OpViewDashboard = Operation{Name: "dashboard:view"}
	OpRunReports    = Operation{Name: "reports:run", Allowed: []models.Role{models.RoleAdmin}}
	OpNotify        = Operation{Name: "notifications:send", Allowed: []models.Role{models.RoleAdmin}}
)
