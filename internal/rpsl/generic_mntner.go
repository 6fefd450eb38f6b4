package rpsl

import (
	"fmt"
	"strings"

	"github.com/irrdcore/rpslvalidate/internal/authcrypt"
)

// GenericMntner wraps a GenericObject of class mntner with the auth-
// specific capabilities the Mntner interface requires. The "auth" slice
// passed to NewGenericMntner holds the raw auth: attribute values, e.g.
// "BCRYPT-PW $2a$10$...", "MD5-PW $1$...", "PGPKEY-ABCD1234", or the
// literal dummy/internal-auth sentinels.
type GenericMntner struct {
	*GenericObject
	auth []string
}

// NewGenericMntner constructs a GenericMntner. auth is copied so that
// ForceSingleNewPassword can safely replace it.
func NewGenericMntner(obj *GenericObject, auth []string) *GenericMntner {
	cp := make([]string, len(auth))
	copy(cp, auth)
	return &GenericMntner{GenericObject: obj, auth: cp}
}

// AuthLines returns the current auth: attribute values.
func (m *GenericMntner) AuthLines() []string {
	return m.auth
}

func (m *GenericMntner) HasDummyAuthValue() bool {
	for _, line := range m.auth {
		if strings.EqualFold(strings.TrimSpace(line), DummyAuthValue) {
			return true
		}
	}
	return false
}

func (m *GenericMntner) HasInternalAuth() bool {
	for _, line := range m.auth {
		if strings.EqualFold(strings.TrimSpace(line), InternalAuthSentinel) {
			return true
		}
	}
	return false
}

func (m *GenericMntner) ForceSingleNewPassword(pw string) error {
	hash, err := authcrypt.HashBcryptPW(pw)
	if err != nil {
		return fmt.Errorf("rpsl: hashing replacement password: %w", err)
	}
	m.auth = []string{fmt.Sprintf("%s %s", SchemeBcryptPW, hash)}
	return nil
}

// VerifyAuth checks passwords and keycertPK against the maintainer's
// configured auth: methods. PGPKEY verification compares only the PK
// string (the core treats key-cert material opaquely; actual PGP
// signature verification belongs to the parser/crypto layer that resolved
// keycertPK in the first place).
func (m *GenericMntner) VerifyAuth(passwords []string, keycertPK string) bool {
	for _, line := range m.auth {
		scheme, value, ok := splitAuthLine(line)
		if !ok {
			continue
		}
		switch scheme {
		case SchemeBcryptPW:
			for _, pw := range passwords {
				if authcrypt.VerifyBcryptPW(value, pw) {
					return true
				}
			}
		case SchemeCryptPW, SchemeMD5PW:
			for _, pw := range passwords {
				if ok, err := authcrypt.VerifyMD5Crypt(value, pw); err == nil && ok {
					return true
				}
			}
		case SchemePGPKey:
			if keycertPK != "" && strings.EqualFold(value, keycertPK) {
				return true
			}
		}
	}
	return false
}

// splitAuthLine splits an auth: value like "BCRYPT-PW $2a$10$..." into its
// scheme and the remainder. PGPKEY-ABCD1234 has no separating space; the
// whole token after the dash is the key-cert PK.
func splitAuthLine(line string) (scheme AuthScheme, value string, ok bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(strings.ToUpper(line), string(SchemePGPKey)+"-") {
		return SchemePGPKey, line[len(SchemePGPKey)+1:], true
	}
	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	switch strings.ToUpper(parts[0]) {
	case string(SchemeBcryptPW):
		return SchemeBcryptPW, parts[1], true
	case string(SchemeCryptPW):
		return SchemeCryptPW, parts[1], true
	case string(SchemeMD5PW):
		return SchemeMD5PW, parts[1], true
	default:
		return "", "", false
	}
}
