package models

// Capability names a single permitted operation. Handlers gate on
// capabilities rather than on raw role comparisons, so the role policy lives
// in exactly one table.
type Capability string

const (
	CapBorrowBooks         Capability = "borrow_books"
	CapReserveBooks        Capability = "reserve_books"
	CapRequestExtension    Capability = "request_extension"
	CapApproveBorrowings   Capability = "approve_borrowings"
	CapApproveReservations Capability = "approve_reservations"
	CapApproveExtensions   Capability = "approve_extensions"
	CapRecordReturns       Capability = "record_returns"
	CapManageFines         Capability = "manage_fines"
	CapManageSettings      Capability = "manage_settings"
	CapManageUsers         Capability = "manage_users"
	CapViewAuditLog        Capability = "view_audit_log"
)

var roleCapabilities = map[Role][]Capability{
	RoleMember: {
		CapBorrowBooks, CapReserveBooks, CapRequestExtension,
	},
	RoleLibrarian: {
		CapApproveBorrowings, CapApproveReservations, CapApproveExtensions,
		CapRecordReturns,
	},
	RoleManager: {
		CapApproveBorrowings, CapApproveReservations, CapApproveExtensions,
		CapRecordReturns, CapManageFines, CapManageSettings, CapViewAuditLog,
	},
	RoleAdmin: {
		CapApproveBorrowings, CapApproveReservations, CapApproveExtensions,
		CapRecordReturns, CapManageFines, CapManageSettings, CapViewAuditLog,
		CapManageUsers,
	},
}

// HasCapability reports whether the role grants the capability.
func (r Role) HasCapability(c Capability) bool {
	for _, got := range roleCapabilities[r] {
		if got == c {
			return true
		}
	}
	return false
}
