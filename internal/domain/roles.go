package domain

type RoleName string

const (
	RoleSuperAdmin RoleName = "super_admin"
	RoleManager    RoleName = "manager"
	RoleEmployee   RoleName = "employee"
)

// Capability is a single permission a role grants.
type Capability string

const (
	CapGenerateReports Capability = "reports.generate"
	CapManageTasks     Capability = "tasks.manage"
	CapManageProjects  Capability = "projects.manage"
	CapViewOwnTasks    Capability = "tasks.view_own"
)

// RoleCapabilities is the fixed mapping from role to capability set.
// Resolved once per session; never recomputed ad hoc per call.
var RoleCapabilities = map[RoleName]map[Capability]bool{
	RoleSuperAdmin: {
		CapGenerateReports: true,
		CapManageTasks:     true,
		CapManageProjects:  true,
		CapViewOwnTasks:    true,
	},
	RoleManager: {
		CapManageTasks:    true,
		CapManageProjects: true,
		CapViewOwnTasks:   true,
	},
	RoleEmployee: {
		CapViewOwnTasks: true,
	},
}

// HasCapability reports whether the named role grants the capability.
// Unknown roles grant nothing.
func HasCapability(role RoleName, cap Capability) bool {
	caps, ok := RoleCapabilities[role]
	return ok && caps[cap]
}
