package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	PermProductsEdit  = "products.edit"
	PermProductsPrice = "products.price"
	PermOrdersEdit    = "orders.edit"
	PermOrdersRefund  = "orders.refund"
	PermOrdersDelete  = "orders.delete"
	PermMessagesEdit  = "messages.edit"
	PermCouponsEdit   = "coupons.edit"
	PermUsersView     = "users.view"
	PermUsersRole     = "users.role"
	PermSettingsEdit  = "settings.edit"
	PermAuditView     = "audit.view"
	PermBlogEdit      = "blog.edit"
)

var rolePermissions = map[string][]string{
	RoleSuperAdmin: {
		PermProductsEdit, PermProductsPrice, PermOrdersEdit, PermOrdersRefund, PermOrdersDelete,
		PermMessagesEdit, PermCouponsEdit, PermUsersView, PermUsersRole, PermSettingsEdit,
		PermAuditView, PermBlogEdit,
	},
	RoleAdmin: {
		PermProductsEdit, PermProductsPrice, PermOrdersEdit, PermOrdersRefund,
		PermMessagesEdit, PermCouponsEdit, PermUsersView, PermSettingsEdit, PermBlogEdit,
	},
}

func HasPermission(role, perm string) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsFor lists what the role may do, for the admin UI.
func PermissionsFor(role string) []string {
	perms := make([]string, len(rolePermissions[role]))
	copy(perms, rolePermissions[role])
	return perms
}

// AuditLog rows live in ScyllaDB, not Mongo.
type AuditLog struct {
	ID         gocql.UUID `json:"id"`
	UserID     string     `json:"userId"`
	UserEmail  string     `json:"userEmail"`
	Action     string     `json:"action"`
	Resource   string     `json:"resource"`
	ResourceID string     `json:"resourceId,omitempty"`
	OldValue   string     `json:"oldValue,omitempty"`
	NewValue   string     `json:"newValue,omitempty"`
	IPAddress  string     `json:"ip"`
	UserAgent  string     `json:"userAgent"`
	Success    bool       `json:"success"`
	ErrorMsg   string     `json:"errorMsg,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}
