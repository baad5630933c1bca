package service

import (
	"context"

	"github.com/maminech/smartkid-api/internal/access"
	"github.com/maminech/smartkid-api/internal/models"
)

// stubResolver grants directors and admins everything and other callers
// a fixed student set keyed by user id.
type stubResolver struct {
	byUser map[string][]string
	err    error
}

func (r *stubResolver) Entitlements(ctx context.Context, caller models.Identity) (access.Entitlements, error) {
	if r.err != nil {
		return access.Entitlements{}, r.err
	}
	if caller.Role == models.RoleDirector || caller.Role == models.RoleAdmin {
		return access.Entitlements{All: true}, nil
	}
	set := make(map[string]struct{})
	for _, id := range r.byUser[caller.UserID] {
		set[id] = struct{}{}
	}
	return access.Entitlements{StudentIDs: set}, nil
}

func parentCaller(id string) models.Identity {
	return models.Identity{UserID: id, Role: models.RoleParent}
}

func teacherCaller(id string) models.Identity {
	return models.Identity{UserID: id, Role: models.RoleTeacher}
}

func directorCaller(id string) models.Identity {
	return models.Identity{UserID: id, Role: models.RoleDirector}
}
