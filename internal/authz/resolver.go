package authz

import (
	"context"
	"strings"

	"opsdesk/internal/models"
)

// adminRoleKey is the single hard-coded wildcard: it resolves to the full
// permission universe without touching storage.
const adminRoleKey = "admin"

// RoleSource is the slice of the role repository the resolver needs.
type RoleSource interface {
	FindByKey(ctx context.Context, key string) (*models.Role, error)
	FindByID(ctx context.Context, id string) (*models.Role, error)
}

// Resolver maps role keys to permission sets with a per-instance cache.
// Construct one per request and drop it afterwards — the cache is never
// shared across requests and never invalidated mid-request.
type Resolver struct {
	roles RoleSource
	cache map[string]PermissionSet
}

func NewResolver(roles RoleSource) *Resolver {
	return &Resolver{roles: roles, cache: map[string]PermissionSet{}}
}

// Resolve returns the effective permission set for roleKey. Blank keys
// resolve to the empty set; unknown stored permission strings are dropped.
// Each distinct key hits storage at most once per resolver.
func (r *Resolver) Resolve(ctx context.Context, roleKey string) (PermissionSet, error) {
	key := strings.ToLower(strings.TrimSpace(roleKey))
	if key == "" {
		return PermissionSet{}, nil
	}
	if cached, ok := r.cache[key]; ok {
		return cached, nil
	}

	if key == adminRoleKey {
		set := AllPermissions()
		r.cache[key] = set
		return set, nil
	}

	role, err := r.roles.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if role == nil {
		// денормализованный ключ не найден — пробуем как первичный id
		role, err = r.roles.FindByID(ctx, key)
		if err != nil {
			return nil, err
		}
	}

	set := PermissionSet{}
	if role != nil {
		for _, raw := range role.Permissions {
			p := Permission(strings.ToLower(strings.TrimSpace(raw)))
			if isKnown(p) {
				set[p] = struct{}{}
			}
		}
	}
	r.cache[key] = set
	return set, nil
}
