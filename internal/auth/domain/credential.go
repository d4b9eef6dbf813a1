package domain

// CredentialMaterial is the raw credential data extracted from a request.
// Empty fields mean the corresponding header was absent.
type CredentialMaterial struct {
	BearerToken string
	APIKey      string
}

// IsEmpty reports whether no credential was presented at all.
func (m CredentialMaterial) IsEmpty() bool {
	return m.BearerToken == "" && m.APIKey == ""
}
