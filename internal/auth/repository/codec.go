// Package repository holds the column encodings shared by the SQL
// repositories in the postgresql and mysql subpackages.
package repository

import (
	"encoding/json"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// EncodeCapabilities stores a capability set as a JSON array of names.
func EncodeCapabilities(capabilities []authDomain.Capability) (string, error) {
	data, err := json.Marshal(capabilities)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode capabilities")
	}
	return string(data), nil
}

// DecodeCapabilities reverses EncodeCapabilities.
func DecodeCapabilities(data string) ([]authDomain.Capability, error) {
	var capabilities []authDomain.Capability
	if err := json.Unmarshal([]byte(data), &capabilities); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode capabilities")
	}
	return capabilities, nil
}

// AuditLogColumns holds the text columns of an audit log row before parsing.
type AuditLogColumns struct {
	CredentialKind string
	Capability     string
	ResourceKind   string
	Decision       string
}

// Apply parses the text columns into auditLog.
func (c AuditLogColumns) Apply(auditLog *authDomain.AuditLog) error {
	capability, err := authDomain.ParseCapability(c.Capability)
	if err != nil {
		return apperrors.Wrap(err, "failed to parse audit log capability")
	}
	decision, err := authDomain.ParseDecision(c.Decision)
	if err != nil {
		return apperrors.Wrap(err, "failed to parse audit log decision")
	}

	auditLog.CredentialKind = authDomain.CredentialKind(c.CredentialKind)
	auditLog.Capability = capability
	auditLog.ResourceKind = authDomain.ResourceKind(c.ResourceKind)
	auditLog.Decision = decision
	return nil
}
