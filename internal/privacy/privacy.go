// Package privacy scrubs identifying data, such as server paths, player ids
// and endpoint URLs, from messages before they leave the process.
package privacy

import (
	"crypto/sha256"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// Pre-compiled patterns, applied in order by ScrubMessage.
var (
	urlPattern  = regexp.MustCompile(`\b(?:https?|tcp)://\S+`)
	pathPattern = regexp.MustCompile(`(/[^/\s'"]+)+/([^/\s'"]+)`)
	uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// PlayerIDPlaceholder replaces player UUIDs in scrubbed messages.
const PlayerIDPlaceholder = "[PLAYER_ID]"

// ScrubMessage anonymizes URLs, strips directories from absolute paths and
// masks player UUIDs.
func ScrubMessage(message string) string {
	scrubbed := urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	scrubbed = pathPattern.ReplaceAllString(scrubbed, ".../$2")
	return uuidPattern.ReplaceAllString(scrubbed, PlayerIDPlaceholder)
}

// AnonymizeURL reduces a URL to a stable hash of its scheme, host category
// and port. Credentials, hostnames and paths do not survive.
func AnonymizeURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-hash-%x", hash[:8])
	}

	var parts []string
	if parsedURL.Scheme != "" {
		parts = append(parts, parsedURL.Scheme)
	}
	if host := parsedURL.Hostname(); host != "" {
		parts = append(parts, categorizeHost(host))
	}
	if port := parsedURL.Port(); port != "" {
		parts = append(parts, "port-"+port)
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("url-%x", hash[:12])
}

// categorizeHost keeps only the kind of host
func categorizeHost(host string) string {
	if host == "localhost" {
		return "localhost"
	}
	if ip := net.ParseIP(host); ip != nil {
		switch {
		case ip.IsLoopback():
			return "localhost"
		case ip.IsPrivate(), ip.IsLinkLocalUnicast():
			return "private-ip"
		default:
			return "public-ip"
		}
	}

	// For domain names, preserve TLD only
	if i := strings.LastIndexByte(host, '.'); i >= 0 && i < len(host)-1 {
		return "domain-" + host[i+1:]
	}
	return "unknown-host"
}
