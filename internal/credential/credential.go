// Package credential is the Credential Resolver (C2): it detects installed
// browsers, reads a user-supplied cookie-jar path, and orders credential
// attempts for the coordinator's age-restriction retry chain.
package credential

import "os"

// Kind discriminates the two ways a credential can authenticate the
// extractor against a video site.
type Kind int

const (
	// KindNone means no credential: the default, unauthenticated attempt.
	KindNone Kind = iota
	// KindCookieFile means a user-supplied Netscape cookie-jar file.
	KindCookieFile
	// KindBrowser means a detected browser's own cookie store, by tag.
	KindBrowser
)

// Credential is one entry in the ordered retry chain.
type Credential struct {
	Kind       Kind
	CookiePath string
	BrowserTag string
}

// None is the zero-value credential: no --cookies flag at all.
func None() Credential { return Credential{Kind: KindNone} }

// CookieFile builds a cookie-jar-file credential.
func CookieFile(path string) Credential { return Credential{Kind: KindCookieFile, CookiePath: path} }

// Browser builds a browser-cookie-store credential for the given tag.
func Browser(tag string) Credential { return Credential{Kind: KindBrowser, BrowserTag: tag} }

// String names the credential for log lines and "checking" progress messages.
func (c Credential) String() string {
	switch c.Kind {
	case KindCookieFile:
		return "cookies file (" + c.CookiePath + ")"
	case KindBrowser:
		return "browser: " + c.BrowserTag
	default:
		return "none"
	}
}

// Resolver builds the ordered credential list consulted on age-restriction
// failure. cookiesFile returns the currently configured cookie-jar path
// (possibly empty), read fresh on every call so a config reload between
// acquisitions is picked up without re-constructing the resolver.
type Resolver struct {
	cookiesFile func() string
}

// New builds a Resolver. cookiesFile is typically config.Store.Get().CookiesFile.
func New(cookiesFile func() string) *Resolver {
	return &Resolver{cookiesFile: cookiesFile}
}

// OrderedCredentials returns the retry chain: the configured cookie file
// first (if set and present on disk), then detected browsers in
// platform-specific priority order. Detection is purely filesystem/process
// observation; no browser is launched.
func (r *Resolver) OrderedCredentials() []Credential {
	var chain []Credential

	// 1: user-supplied cookie jar, when configured and present.
	if path := r.cookiesFile(); path != "" {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			chain = append(chain, CookieFile(path))
		}
	}

	// 2: detected browsers, already returned in platform priority order by
	// detectBrowsers (build-tag-split per OS).
	for _, tag := range detectBrowsers() {
		chain = append(chain, Browser(tag))
	}

	return chain
}
