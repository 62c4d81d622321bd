package domain

import (
	"fmt"
	"regexp"
)

const (
	DefaultLegacyDomain  = "com.mactelnet.MacTelnet"
	DefaultCurrentDomain = "net.macterm.MacTerm"
	// VersionKey holds the schema version in the primary domain. The main
	// application reads the same key, so it must never change.
	VersionKey = "prefs-version"
)

// Names identifies the legacy and current primary domains. Collection domains
// are named by prefixing the primary domain, e.g. "net.macterm.MacTerm.sessions.1".
type Names struct {
	Legacy  string
	Current string
}

func DefaultNames() Names {
	return Names{
		Legacy:  DefaultLegacyDomain,
		Current: DefaultCurrentDomain,
	}
}

func (n Names) Validate() error {
	if err := ValidateName(n.Legacy); err != nil {
		return fmt.Errorf("legacy domain: %w", err)
	}
	if err := ValidateName(n.Current); err != nil {
		return fmt.Errorf("current domain: %w", err)
	}
	if n.Legacy == n.Current {
		return fmt.Errorf("legacy and current domains must differ, both are %q", n.Current)
	}
	return nil
}

// Rename maps a domain name from the legacy namespace to the current one. Every
// occurrence of the legacy identifier is replaced, ignoring case. Names that
// don't mention the legacy identifier are returned unchanged.
func (n Names) Rename(name string) string {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(n.Legacy))
	return re.ReplaceAllLiteralString(name, n.Current)
}
