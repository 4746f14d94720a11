package auth

import (
	"context"

	"github.com/straye-as/vendor-portal-api/internal/domain"
)

// Principal is the authenticated caller. Role admin/staff means ID is a users.id,
// role vendor means ID is a vendors.id.
type Principal struct {
	ID    uint
	Role  domain.Role
	Email string
	Name  string
}

type contextKey string

const (
	principalContextKey contextKey = "principal"
	slotContextKey      contextKey = "principal_slot"
)

type principalSlot struct {
	p *Principal
}

// WithPrincipal adds the principal to the context and fills any slot opened by WithPrincipalSlot
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if slot, ok := ctx.Value(slotContextKey).(*principalSlot); ok {
		slot.p = p
	}
	return context.WithValue(ctx, principalContextKey, p)
}

// WithPrincipalSlot lets outer middleware observe the principal that inner
// middleware authenticates. The returned func reports it after the request is served.
func WithPrincipalSlot(ctx context.Context) (context.Context, func() *Principal) {
	slot := &principalSlot{}
	return context.WithValue(ctx, slotContextKey, slot), func() *Principal { return slot.p }
}

// FromContext extracts the principal from the context. Outer middleware holding a
// slot sees the principal once inner middleware has authenticated the request.
func FromContext(ctx context.Context) (*Principal, bool) {
	if p, ok := ctx.Value(principalContextKey).(*Principal); ok && p != nil {
		return p, true
	}
	if slot, ok := ctx.Value(slotContextKey).(*principalSlot); ok && slot.p != nil {
		return slot.p, true
	}
	return nil, false
}

// HasRole checks if the principal has a specific role
func (p *Principal) HasRole(role domain.Role) bool {
	return p != nil && p.Role == role
}

// HasAnyRole checks if the principal has any of the specified roles
func (p *Principal) HasAnyRole(roles ...domain.Role) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin checks if the principal is an administrator
func (p *Principal) IsAdmin() bool {
	return p.HasRole(domain.RoleAdmin)
}

// IsVendor checks if the principal is a vendor session
func (p *Principal) IsVendor() bool {
	return p.HasRole(domain.RoleVendor)
}

// ActorType returns the actor recorded on lead events and audit logs
func (p *Principal) ActorType() domain.ActorType {
	if p == nil {
		return domain.ActorSystem
	}
	return domain.ActorTypeForRole(p.Role)
}

// ActorID returns a pointer to the principal ID, or nil for system actions
func (p *Principal) ActorID() *uint {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}

// UserID returns the principal ID when it refers to a users row, otherwise nil
func (p *Principal) UserID() *uint {
	if p == nil || !p.Role.IsUserRole() {
		return nil
	}
	id := p.ID
	return &id
}
