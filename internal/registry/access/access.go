// Package access resolves what a caller identity may do: sole privileged
// owner, member of the admin role set, or blocked entirely. Every other
// registry component consults these predicates before mutating state.
package access

import (
	"folio/internal/registry/models"
	"folio/internal/registry/state"
	dErrors "folio/pkg/domain-errors"
)

// IsOwner reports whether the caller is the registry owner.
func IsOwner(r *state.Registry, caller models.Address) bool {
	return !caller.IsZero() && caller == r.Owner
}

// IsAdmin reports whether the caller is a member of the admin role set.
func IsAdmin(r *state.Registry, caller models.Address) bool {
	_, ok := r.Admins[caller]
	return ok
}

// IsPrivileged reports owner-or-admin. Operations gated on either role
// accept them interchangeably.
func IsPrivileged(r *state.Registry, caller models.Address) bool {
	return IsOwner(r, caller) || IsAdmin(r, caller)
}

// IsBlocked reports whether the caller is blacklisted.
func IsBlocked(r *state.Registry, caller models.Address) bool {
	_, ok := r.Blacklist[caller]
	return ok
}

// Guards return coded errors so services compose them in the fixed order
// each operation specifies.

func RequireNotBlocked(r *state.Registry, caller models.Address) error {
	if IsBlocked(r, caller) {
		return dErrors.New(dErrors.CodeBlocked, "caller is blacklisted")
	}
	return nil
}

func RequireOwner(r *state.Registry, caller models.Address) error {
	if !IsOwner(r, caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "owner only")
	}
	return nil
}

func RequirePrivileged(r *state.Registry, caller models.Address) error {
	if !IsPrivileged(r, caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "owner or admin only")
	}
	return nil
}
