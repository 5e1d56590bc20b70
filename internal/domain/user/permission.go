package user

type Permission string

const (
	// Leave Management
	PermissionLeaveRead        Permission = "leave.read"
	PermissionLeaveCreate      Permission = "leave.create"
	PermissionLeaveUpdate      Permission = "leave.update"
	PermissionLeaveReview      Permission = "leave.review"
	PermissionLeaveFinalReview Permission = "leave.final_review"

	// User Management
	PermissionUserRead   Permission = "user.read"
	PermissionUserManage Permission = "user.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		// Admin has all permissions
		PermissionLeaveRead,
		PermissionLeaveCreate,
		PermissionLeaveUpdate,
		PermissionLeaveReview,
		PermissionLeaveFinalReview,
		PermissionUserRead,
		PermissionUserManage,
	},
	RoleUser: {
		// Users can be named reviewers on their peers' leaves
		PermissionLeaveRead,
		PermissionLeaveCreate,
		PermissionLeaveUpdate,
		PermissionLeaveReview,
		PermissionUserRead,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
