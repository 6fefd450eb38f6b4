package rpsl

import "strings"

// SetAuthMode controls whether creating a "set" object (as-set, route-set,
// etc.) also requires authenticating the aut-num matching its ASN segment.
type SetAuthMode int

const (
	// SetAuthDisabled means no related aut-num is ever looked up.
	SetAuthDisabled SetAuthMode = iota
	// SetAuthOpportunistic authenticates the related aut-num if it exists,
	// but does not require it to exist.
	SetAuthOpportunistic
	// SetAuthRequired requires the related aut-num to exist; its absence
	// is itself an error.
	SetAuthRequired
)

// SetAuthModeForClass resolves the configured mode for a set object class,
// falling back to SetAuthOpportunistic for any recognised set class absent
// from the configuration, and SetAuthDisabled for anything else.
func SetAuthModeForClass(class ObjectClass, configured map[ObjectClass]SetAuthMode) SetAuthMode {
	if mode, ok := configured[class]; ok {
		return mode
	}
	if IsSetClass(class) {
		return SetAuthOpportunistic
	}
	return SetAuthDisabled
}

// SetObject is the capability set object classes (as-set, route-set,
// rtr-set, filter-set, peering-set) additionally expose.
type SetObject interface {
	Object

	// PKASNSegment returns the AS-number prefix of the set's PK, e.g.
	// "AS65000" from "AS65000:AS-CUSTOMERS", and whether one is present.
	PKASNSegment() (string, bool)
}

// ParsePKASNSegment extracts the leading "AS<digits>" component of a set PK
// hierarchy, e.g. "AS65000:AS-CUSTOMERS:AS-EU" -> ("AS65000", true), and
// "AS-CUSTOMERS" -> ("", false).
func ParsePKASNSegment(pk string) (string, bool) {
	first, _, _ := strings.Cut(pk, ":")
	if isASNToken(first) {
		return strings.ToUpper(first), true
	}
	return "", false
}

func isASNToken(s string) bool {
	if len(s) < 3 {
		return false
	}
	if s[0] != 'A' && s[0] != 'a' {
		return false
	}
	if s[1] != 'S' && s[1] != 's' {
		return false
	}
	for _, r := range s[2:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
