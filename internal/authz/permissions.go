package authz

// Permission names one allowed action. The set a user holds is derived from
// their role on every request; PermAdmin implies everything.
type Permission string

const (
	PermAdmin Permission = "admin"

	PermTaskView   Permission = "task_view"
	PermTaskCreate Permission = "task_create"
	PermTaskEdit   Permission = "task_edit"
	PermTaskDelete Permission = "task_delete"

	PermLeadView Permission = "lead_view"
	PermLeadEdit Permission = "lead_edit"

	PermQuotationView    Permission = "quotation_view"
	PermQuotationEdit    Permission = "quotation_edit"
	PermQuotationApprove Permission = "quotation_approve"

	PermPORequestCreate  Permission = "po_request_create"
	PermPORequestApprove Permission = "po_request_approve"

	PermProjectViewAll Permission = "project_view_all"
	PermUserManage     Permission = "user_manage"
)

// allPermissions is the known permission universe. Stored role documents may
// carry strings outside of it (renamed or removed capabilities); those are
// dropped silently on resolve.
var allPermissions = []Permission{
	PermAdmin,
	PermTaskView, PermTaskCreate, PermTaskEdit, PermTaskDelete,
	PermLeadView, PermLeadEdit,
	PermQuotationView, PermQuotationEdit, PermQuotationApprove,
	PermPORequestCreate, PermPORequestApprove,
	PermProjectViewAll, PermUserManage,
}

// PermissionSet is a resolved capability set.
type PermissionSet map[Permission]struct{}

// AllPermissions returns the full universe (what the admin role resolves to).
func AllPermissions() PermissionSet {
	set := make(PermissionSet, len(allPermissions))
	for _, p := range allPermissions {
		set[p] = struct{}{}
	}
	return set
}

func isKnown(p Permission) bool {
	for _, k := range allPermissions {
		if k == p {
			return true
		}
	}
	return false
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAny reports whether the set contains PermAdmin or intersects required.
// It is always an "any of" check, never "all of"; the admin bypass lives
// here so call sites don't repeat it.
func (s PermissionSet) HasAny(required ...Permission) bool {
	if s.Has(PermAdmin) {
		return true
	}
	for _, p := range required {
		if s.Has(p) {
			return true
		}
	}
	return false
}
