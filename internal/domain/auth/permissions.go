package auth

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
)

var Roles = []string{RoleEmployee, RoleManager, RoleHR, RoleAdmin}

const (
	PermLeaveRead       = "leave.read"
	PermLeaveWrite      = "leave.write"
	PermLeaveApprove    = "leave.approve"
	PermLeaveAdmin      = "leave.admin"
	PermAttendanceRead  = "attendance.read"
	PermAttendanceWrite = "attendance.write"
	PermAttendanceAdmin = "attendance.admin"
	PermReconcileRun    = "attendance.reconcile"
	PermEmployeesRead   = "core.employees.read"
	PermEmployeesWrite  = "core.employees.write"
	PermMetricsRead     = "metrics.read"
	PermAuditRead       = "audit.read"
)

var DefaultPermissions = []string{
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermLeaveAdmin,
	PermAttendanceRead,
	PermAttendanceWrite,
	PermAttendanceAdmin,
	PermReconcileRun,
	PermEmployeesRead,
	PermEmployeesWrite,
	PermMetricsRead,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermLeaveRead,
		PermLeaveWrite,
		PermAttendanceRead,
		PermAttendanceWrite,
	},
	RoleManager: {
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermEmployeesRead,
	},
	RoleHR: {
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermLeaveAdmin,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermAttendanceAdmin,
		PermReconcileRun,
		PermEmployeesRead,
		PermEmployeesWrite,
		PermMetricsRead,
		PermAuditRead,
	},
	RoleAdmin: DefaultPermissions,
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

func HasPermission(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}

// CanActForOthers reports roles that may read or manage records of employees
// other than themselves.
func CanActForOthers(role string) bool {
	return role == RoleHR || role == RoleAdmin
}
