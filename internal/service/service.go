// Package service implements the application use cases. Services validate
// payloads, consult the access policy, and orchestrate the entity store.
// Every entitlement failure on a specific record is surfaced as a
// NotFound-shaped error so unauthorized callers cannot confirm existence.
package service

import (
	"context"

	"github.com/maminech/smartkid-api/internal/access"
	"github.com/maminech/smartkid-api/internal/models"
)

// entitlementResolver narrows callers to the student set they may access.
type entitlementResolver interface {
	Entitlements(ctx context.Context, caller models.Identity) (access.Entitlements, error)
}
