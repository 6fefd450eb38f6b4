package rpsl

// AuthScheme is the scheme prefix on an RPSL mntner `auth:` line.
type AuthScheme string

const (
	SchemeCryptPW  AuthScheme = "CRYPT-PW"
	SchemeMD5PW    AuthScheme = "MD5-PW"
	SchemeBcryptPW AuthScheme = "BCRYPT-PW"
	SchemePGPKey   AuthScheme = "PGPKEY"
	SchemeSSO      AuthScheme = "SSO"
)

// DummyAuthValue is the placeholder string IRRd publishes in RPSL exports in
// place of real password hashes, matched case-insensitively.
const DummyAuthValue = "DUMMY-VALUE"

// InternalAuthSentinel is the `auth:` line value that marks a maintainer as
// migrated to the internal user/auth tables.
const InternalAuthSentinel = "SSO mntner-sso"

// Mntner is the capability set a maintainer object additionally exposes
// beyond Object.
type Mntner interface {
	Object

	// VerifyAuth reports whether any of the given passwords, or the given
	// keycert PK, satisfies one of this maintainer's configured auth:
	// methods. API keys are never checked here — callers check those
	// separately, since an API key never authenticates a maintainer object.
	VerifyAuth(passwords []string, keycertPK string) bool

	// HasDummyAuthValue reports whether any auth: line equals the dummy
	// sentinel (case-insensitive).
	HasDummyAuthValue() bool

	// ForceSingleNewPassword replaces all auth hashes with a single fresh
	// BCRYPT-PW hash of pw. Used only when HasDummyAuthValue is true and
	// exactly one password was submitted.
	ForceSingleNewPassword(pw string) error

	// HasInternalAuth reports whether the object's auth: attributes
	// include InternalAuthSentinel.
	HasInternalAuth() bool
}
