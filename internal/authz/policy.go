// Package authz centralises every role and ownership decision in the
// platform. Policies are pure functions: callers load the relevant facts
// (role, ownership, team membership) and the policy only combines them, so
// the same rule cannot drift between read and write paths.
package authz

import "github.com/qrcs/qrcs/internal/models"

// Scope describes which incidents a role may see in list queries.
type Scope int

const (
	// ScopeAll grants visibility over every incident.
	ScopeAll Scope = iota
	// ScopeAssigned limits visibility to incidents the actor is assigned to.
	ScopeAssigned
	// ScopeOwn limits visibility to incidents the actor reported.
	ScopeOwn
)

// IncidentScope returns the visibility scope for the given role.
// Admins see everything, responders see their assignments, reporters see
// what they filed.
func IncidentScope(role models.Role) Scope {
	switch role {
	case models.RoleAdmin:
		return ScopeAll
	case models.RoleResponder:
		return ScopeAssigned
	default:
		return ScopeOwn
	}
}

// CanViewIncident reports whether the actor may read a single incident.
func CanViewIncident(role models.Role, actorID, reporterID string, assigned bool) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleResponder:
		return assigned
	default:
		return actorID == reporterID
	}
}

// CanUpdateIncident reports whether the actor may change incident status or
// severity. Reporters never may, not even on their own incidents.
func CanUpdateIncident(role models.Role, assigned bool) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleResponder:
		return assigned
	default:
		return false
	}
}

// CanAssignResponder reports whether the actor may create assignments.
func CanAssignResponder(role models.Role) bool {
	return role == models.RoleAdmin
}

// CanSetTeamLead reports whether the actor may designate a team lead.
func CanSetTeamLead(role models.Role) bool {
	return role == models.RoleAdmin
}

// CanCreateResponseLog reports whether the actor may record a response
// action. Responders must be assigned to the incident; admins are not gated
// on membership.
func CanCreateResponseLog(role models.Role, assigned bool) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleResponder:
		return assigned
	default:
		return false
	}
}

// CanManageCategories reports whether the actor may create, update or
// delete incident categories.
func CanManageCategories(role models.Role) bool {
	return role == models.RoleAdmin
}

// CanMarkNotification reports whether the actor owns the notification's
// read flag. Only the recipient ever does.
func CanMarkNotification(actorID, recipientID string) bool {
	return actorID != "" && actorID == recipientID
}
