package domain

import "strings"

// CredentialKind discriminates the Credential union.
type CredentialKind int

const (
	CredentialNone CredentialKind = iota
	CredentialHostManaged
	CredentialUserProvided
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialHostManaged:
		return "host_managed"
	case CredentialUserProvided:
		return "user_provided"
	default:
		return "none"
	}
}

// Credential selects how provider calls are authorized: not at all, through
// the host proxy, or directly with a key the user supplied. The zero value is
// the None variant.
type Credential struct {
	kind CredentialKind
	key  string
}

func NoCredential() Credential {
	return Credential{}
}

func HostManaged() Credential {
	return Credential{kind: CredentialHostManaged}
}

// UserProvided wraps a user key. A blank key yields the None variant.
func UserProvided(key string) Credential {
	key = strings.TrimSpace(key)
	if key == "" {
		return Credential{}
	}
	return Credential{kind: CredentialUserProvided, key: key}
}

func (c Credential) Kind() CredentialKind {
	return c.kind
}

// Key returns the user key and true only for the UserProvided variant.
func (c Credential) Key() (string, bool) {
	if c.kind != CredentialUserProvided {
		return "", false
	}
	return c.key, true
}

func (c Credential) IsNone() bool {
	return c.kind == CredentialNone
}

// String never includes the key material.
func (c Credential) String() string {
	return c.kind.String()
}
