package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
)

// auditSigningInfo binds derived keys to this use and format version.
var auditSigningInfo = []byte("prosa-audit-log-v1")

type auditSigner struct{}

// NewAuditSigner creates an AuditSigner that derives an HMAC-SHA256 key from
// the configured secret with HKDF-SHA256.
func NewAuditSigner() AuditSigner {
	return &auditSigner{}
}

func (a *auditSigner) Sign(key []byte, log *authDomain.AuditLog) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("audit signing key is empty")
	}

	signingKey := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, auditSigningInfo), signingKey); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer clear(signingKey)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonicalAuditLog(log))
	return mac.Sum(nil), nil
}

func (a *auditSigner) Verify(key []byte, log *authDomain.AuditLog) error {
	expected, err := a.Sign(key, log)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}
	if !hmac.Equal(log.Signature, expected) {
		return authDomain.ErrSignatureInvalid
	}
	return nil
}

// canonicalAuditLog serializes every signed field. Strings carry a 4-byte
// length prefix; the timestamp is Unix microseconds, the precision all stores keep.
func canonicalAuditLog(log *authDomain.AuditLog) []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, log.ID[:]...)
	buf = append(buf, log.PrincipalID[:]...)
	buf = appendLengthPrefixed(buf, log.RequestID)
	buf = appendLengthPrefixed(buf, string(log.CredentialKind))
	buf = appendLengthPrefixed(buf, log.Capability.String())
	buf = appendLengthPrefixed(buf, string(log.ResourceKind))
	buf = appendLengthPrefixed(buf, log.Decision.String())
	buf = binary.BigEndian.AppendUint64(buf, uint64(log.CreatedAt.UnixMicro()))
	return buf
}

func appendLengthPrefixed(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
