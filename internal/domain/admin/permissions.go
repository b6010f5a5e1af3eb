package admin

// Permission represents an admin capability
type Permission string

const (
	// PermTrustView gates reads of risk/reputation profiles and
	// location checks
	PermTrustView Permission = "trust.view"

	// PermTrustOverride gates score overrides and block releases
	PermTrustOverride Permission = "trust.override"

	// PermAuditView gates the admin audit trail
	PermAuditView Permission = "trust.audit.view"

	// PermAlertStream gates the live safety alert websocket
	PermAlertStream Permission = "trust.alerts"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermTrustView, PermTrustOverride, PermAuditView, PermAlertStream,
	},
	RoleAdmin: {
		PermTrustView, PermTrustOverride, PermAlertStream,
	},
	RoleModerator: {
		PermTrustView, PermAlertStream,
	},
	RoleSupport: {
		PermTrustView,
	},
}
