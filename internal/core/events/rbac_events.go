package events

import (
	"time"

	"github.com/google/uuid"
)

// Authorization data change events. Anything that caches resolved
// permissions or pages subscribes to these.
const (
	RolePermissionsChanged = "rbac.role_permissions.changed"
	RolePagesChanged       = "rbac.role_pages.changed"
	RoleChanged            = "rbac.role.changed"
	RoleDeleted            = "rbac.role.deleted"
	UserOverridesChanged   = "rbac.user_overrides.changed"
	UserRoleChanged        = "rbac.user_role.changed"
	PermissionDeleted      = "rbac.permission.deleted"
	PageDeleted            = "rbac.page.deleted"
)

// RoleScopedEvents affect every user holding a role or every user at all.
var RoleScopedEvents = []string{
	RolePermissionsChanged,
	RolePagesChanged,
	RoleChanged,
	RoleDeleted,
	PermissionDeleted,
	PageDeleted,
}

// UserScopedEvents affect exactly one user, carried in the "user_id" field.
var UserScopedEvents = []string{
	UserOverridesChanged,
	UserRoleChanged,
}

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewRoleEvent(eventType, roleID string) BaseEvent {
	return newEvent(eventType, map[string]interface{}{"role_id": roleID})
}

func NewUserEvent(eventType, userID string) BaseEvent {
	return newEvent(eventType, map[string]interface{}{"user_id": userID})
}

func NewPermissionDeletedEvent(permissionID string) BaseEvent {
	return newEvent(PermissionDeleted, map[string]interface{}{"permission_id": permissionID})
}

func NewPageDeletedEvent(pageID string) BaseEvent {
	return newEvent(PageDeleted, map[string]interface{}{"page_id": pageID})
}

// UserIDOf extracts the user id from a user-scoped event.
func UserIDOf(e Event) (string, bool) {
	data, ok := e.Payload().(map[string]interface{})
	if !ok {
		return "", false
	}
	id, ok := data["user_id"].(string)
	return id, ok && id != ""
}
