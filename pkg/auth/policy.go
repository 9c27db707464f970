package auth

import "errors"

const (
	RoleManager = "MANAGER"
	RoleRegular = "REGULAR"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient permissions")
)

type Action string

const (
	ActionEventCreate        Action = "event:create"
	ActionEventUpdate        Action = "event:update"
	ActionEventDelete        Action = "event:delete"
	ActionRegistrationManage Action = "registration:manage"
	ActionRegistrationRoster Action = "registration:roster"
	ActionRegistrationRead   Action = "registration:read"
	ActionRegistrationUpdate Action = "registration:update"
	ActionRegistrationCancel Action = "registration:cancel"
	ActionUserManage         Action = "user:manage"
	ActionProfileUpdate      Action = "profile:update"
)

// ownerActions may be performed by the resource owner as well as a manager.
var ownerActions = map[Action]bool{
	ActionRegistrationRead:   true,
	ActionRegistrationUpdate: true,
	ActionRegistrationCancel: true,
	ActionProfileUpdate:      true,
}

func IsValidRole(role string) bool {
	return role == RoleManager || role == RoleRegular
}

// HasRole reports whether claims satisfy required. REGULAR is satisfied by
// any authenticated user, MANAGER only by a manager.
func HasRole(claims *Claims, required string) bool {
	if claims == nil {
		return false
	}
	if required == RoleRegular {
		return true
	}
	return claims.Role == required
}

// CanAccessResource allows the owner of a resource or any manager.
func CanAccessResource(claims *Claims, ownerID string) bool {
	if claims == nil {
		return false
	}
	return claims.Role == RoleManager || (ownerID != "" && claims.UserID == ownerID)
}

// Authorize is the single decision point for every protected operation.
// ownerID is ignored for manager-only actions.
func Authorize(actor *Claims, action Action, ownerID string) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if ownerActions[action] {
		if CanAccessResource(actor, ownerID) {
			return nil
		}
		return ErrForbidden
	}
	if HasRole(actor, RoleManager) {
		return nil
	}
	return ErrForbidden
}
