package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Decision is the verdict of the access decision engine.
type Decision int

const (
	// DecisionAllow lets the operation proceed.
	DecisionAllow Decision = iota
	// DecisionNotFound hides the resource from the caller.
	DecisionNotFound
	// DecisionForbidden reports the denial directly.
	DecisionForbidden
)

// String returns a stable lowercase label used in logs and metrics.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionNotFound:
		return "not_found"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// ParseDecision converts a label produced by String back into a Decision.
func ParseDecision(label string) (Decision, error) {
	switch label {
	case "allow":
		return DecisionAllow, nil
	case "not_found":
		return DecisionNotFound, nil
	case "forbidden":
		return DecisionForbidden, nil
	default:
		return 0, fmt.Errorf("unknown decision %q", label)
	}
}

// ResourceKind names a resource family. It only shapes the not-found message.
type ResourceKind string

// Resource families gated by the engine.
const (
	ResourceBook         ResourceKind = "book"
	ResourceCover        ResourceKind = "cover"
	ResourceMetadata     ResourceKind = "metadata"
	ResourceAnnotation   ResourceKind = "annotation"
	ResourceReadingState ResourceKind = "reading_state"
	ResourceShelf        ResourceKind = "shelf"
	ResourceUser         ResourceKind = "user"
	ResourceAPIKey       ResourceKind = "api_key"
	ResourceAuditLog     ResourceKind = "audit_log"
)

var notFoundMessages = map[ResourceKind]string{
	ResourceBook:         "The requested book does not exist or is not accessible.",
	ResourceCover:        "The requested cover does not exist or is not accessible.",
	ResourceMetadata:     "The requested metadata does not exist or is not accessible.",
	ResourceAnnotation:   "The requested annotation does not exist or is not accessible.",
	ResourceReadingState: "The requested reading state does not exist or is not accessible.",
	ResourceShelf:        "The requested shelf does not exist or is not accessible.",
	ResourceUser:         "The requested user does not exist or is not accessible.",
	ResourceAPIKey:       "The requested API key does not exist or is not accessible.",
	ResourceAuditLog:     "The requested audit log does not exist or is not accessible.",
}

// NotFoundMessage returns the fixed client-facing message for a hidden resource.
func (k ResourceKind) NotFoundMessage() string {
	if msg, ok := notFoundMessages[k]; ok {
		return msg
	}
	return "The requested resource does not exist or is not accessible."
}

// NotFoundError returns the public not-found error for this resource family.
func (k ResourceKind) NotFoundError() error {
	return newNotFoundError(k.NotFoundMessage())
}

// AuthorizationQuery is one decision request. Exactly one of ResourceOwner
// (an existing resource) or TargetUser (a creation-style call) is normally
// set; when both are, ResourceOwner wins.
type AuthorizationQuery struct {
	Principal     *Principal
	Capability    Capability
	ResourceOwner *uuid.UUID
	TargetUser    *uuid.UUID
	ResourceKind  ResourceKind
}

// OwnedResourceQuery builds a query against an existing resource owned by owner.
func OwnedResourceQuery(
	principal *Principal,
	capability Capability,
	kind ResourceKind,
	owner uuid.UUID,
) AuthorizationQuery {
	return AuthorizationQuery{
		Principal:     principal,
		Capability:    capability,
		ResourceOwner: &owner,
		ResourceKind:  kind,
	}
}

// TargetUserQuery builds a query for a creation-style call on behalf of target.
func TargetUserQuery(
	principal *Principal,
	capability Capability,
	kind ResourceKind,
	target uuid.UUID,
) AuthorizationQuery {
	return AuthorizationQuery{
		Principal:    principal,
		Capability:   capability,
		TargetUser:   &target,
		ResourceKind: kind,
	}
}

// Decide evaluates the query. The order of the checks is significant:
//
//  1. an elevated principal skips the ownership gate;
//  2. a non-owner of an existing resource gets NotFound, whatever its capabilities;
//  3. a creation call naming another user gets Forbidden;
//  4. a missing capability gets Forbidden;
//  5. anything else is allowed.
//
// Decide never fails. A query without a principal is Forbidden.
func Decide(q AuthorizationQuery) Decision {
	p := q.Principal
	if p == nil {
		return DecisionForbidden
	}

	if !p.IsElevated() {
		switch {
		case q.ResourceOwner != nil:
			if p.UserID() != *q.ResourceOwner {
				return DecisionNotFound
			}
		case q.TargetUser != nil:
			if p.UserID() != *q.TargetUser {
				return DecisionForbidden
			}
		}
	}

	if !p.HasCapability(q.Capability) {
		return DecisionForbidden
	}

	return DecisionAllow
}

// Err converts a decision into the error a handler should surface, or nil for Allow.
func (d Decision) Err(kind ResourceKind) error {
	switch d {
	case DecisionAllow:
		return nil
	case DecisionNotFound:
		return kind.NotFoundError()
	default:
		return ErrAccessForbidden
	}
}
