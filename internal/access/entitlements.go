// Package access is the role-scoped authorization policy. It decides, for a
// caller identity and a target entity or action, whether the operation is
// allowed and how result sets must be narrowed. Decisions are pure and
// HTTP-free so they can be tested without a running server.
package access

import (
	"context"

	"github.com/maminech/smartkid-api/internal/models"
)

// Entitlements is the set of student ids a caller is authorized to access.
// All short-circuits membership for directors and admins.
type Entitlements struct {
	All        bool
	StudentIDs map[string]struct{}
}

// Allows reports whether the caller may access the given student.
func (e Entitlements) Allows(studentID string) bool {
	if e.All {
		return true
	}
	_, ok := e.StudentIDs[studentID]
	return ok
}

// IDs returns the entitled student ids as a slice. Nil when All is set.
func (e Entitlements) IDs() []string {
	if e.All {
		return nil
	}
	ids := make([]string, 0, len(e.StudentIDs))
	for id := range e.StudentIDs {
		ids = append(ids, id)
	}
	return ids
}

// StudentSource supplies the ownership relations entitlements derive from.
type StudentSource interface {
	ListIDsByParent(ctx context.Context, parentID string) ([]string, error)
	ListIDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
}

// Resolver computes caller entitlements from the student ownership links.
type Resolver struct {
	students StudentSource
}

// NewResolver constructs a Resolver.
func NewResolver(students StudentSource) *Resolver {
	return &Resolver{students: students}
}

// Entitlements resolves the entitled student set for the caller:
// parents see their own children, teachers the students of classes they
// teach, directors and admins everything.
func (r *Resolver) Entitlements(ctx context.Context, caller models.Identity) (Entitlements, error) {
	switch caller.Role {
	case models.RoleDirector, models.RoleAdmin:
		return Entitlements{All: true}, nil
	case models.RoleParent:
		ids, err := r.students.ListIDsByParent(ctx, caller.UserID)
		if err != nil {
			return Entitlements{}, err
		}
		return fromIDs(ids), nil
	case models.RoleTeacher:
		ids, err := r.students.ListIDsByTeacher(ctx, caller.UserID)
		if err != nil {
			return Entitlements{}, err
		}
		return fromIDs(ids), nil
	}
	return Entitlements{StudentIDs: map[string]struct{}{}}, nil
}

func fromIDs(ids []string) Entitlements {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Entitlements{StudentIDs: set}
}
