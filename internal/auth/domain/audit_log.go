package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one access decision. Signature is an HMAC over the other
// fields so tampering can be detected offline.
type AuditLog struct {
	ID             uuid.UUID
	RequestID      string
	PrincipalID    uuid.UUID
	CredentialKind CredentialKind
	Capability     Capability
	ResourceKind   ResourceKind
	Decision       Decision
	Signature      []byte
	CreatedAt      time.Time
}

// AuditLogVerification summarizes a signature check over a batch of entries.
type AuditLogVerification struct {
	Checked int
	Valid   int
	Invalid []uuid.UUID
}
