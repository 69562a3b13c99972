package publishing

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// locatorPattern is the Ledger's locator grammar: scheme:namespace/chain-id/numeric-id.
// The chain id may itself contain a colon (e.g. "otp:2043").
const locatorPattern = `([a-z][a-z0-9+.-]*):([A-Za-z0-9._-]+)/([A-Za-z0-9._:-]+)/([0-9]+)`

var locatorRegexp = regexp.MustCompile(`^` + locatorPattern + `$`)

// the free-text search is bounded on both sides so a locator embedded in a
// longer token is not matched: "did:dkg/otp:2043/123abc" is not asset 123
var locatorSearchRegexp = regexp.MustCompile(`\b` + locatorPattern + `\b`)

// Locator is a durable reference to an asset anchored on the Ledger.
type Locator struct {
	Scheme    string
	Namespace string
	ChainID   string
	AssetID   uint64
}

func (l Locator) String() string {
	return fmt.Sprintf("%s:%s/%s/%d", l.Scheme, l.Namespace, l.ChainID, l.AssetID)
}

// ParseLocator parses a full locator string. The whole input must match the
// locator grammar.
func ParseLocator(value string) (Locator, error) {
	match := locatorRegexp.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return Locator{}, fmt.Errorf("value %q does not match the locator grammar scheme:namespace/chain-id/numeric-id", value)
	}
	assetID, err := strconv.ParseUint(match[4], 10, 64)
	if err != nil {
		return Locator{}, fmt.Errorf("error parsing asset id %q of locator %q: %w", match[4], value, err)
	}
	return Locator{
		Scheme:    match[1],
		Namespace: match[2],
		ChainID:   match[3],
		AssetID:   assetID,
	}, nil
}

// ExtractLocator finds the first locator embedded in free text. Used by the
// conversational transport, whose backend replies in natural language. A
// missing match is not an error: the backend may still be working.
func ExtractLocator(text string) (Locator, bool) {
	match := locatorSearchRegexp.FindString(text)
	if match == "" {
		return Locator{}, false
	}
	locator, err := ParseLocator(match)
	if err != nil {
		return Locator{}, false
	}
	return locator, true
}

// ResolveExplorerURL translates a locator into a human-followable explorer
// URL. A nil locator resolves to the empty string.
func ResolveExplorerURL(explorerBaseURL string, locator *Locator) string {
	if locator == nil {
		return ""
	}
	base := strings.TrimRight(explorerBaseURL, "/")
	return fmt.Sprintf("%s/explore?ual=%s", base, url.QueryEscape(locator.String()))
}
