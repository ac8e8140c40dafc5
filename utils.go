package main

import (
	"net/url"
	"strings"
)

var sentinelMarkers = []string{"Deleted", "Hidden"}

// absoluteURL resolves href against base. Unparseable input is returned unchanged.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// isSentinelText reports whether a link label marks a deleted or hidden account.
func isSentinelText(s string) bool {
	for _, m := range sentinelMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// truncate shortens s to at most n runes for log output.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
