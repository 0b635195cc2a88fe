package leave

// CanEditOrDelete reports whether actor may update or delete request. Admins
// always may; everyone else only their own vacation while it is pending.
func CanEditOrDelete(request LeaveRequest, actor *User) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return actor.ID == request.User.ID &&
		request.Type == TypeVacation &&
		request.Status == StatusPending
}

// canActFor reports whether actor may create requests on behalf of target.
func canActFor(actor, target *User) bool {
	return actor.IsAdmin() || actor.ID == target.ID
}
