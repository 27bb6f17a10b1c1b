package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Identity resolution derives stable, source-qualified natural ids from raw
// payload fields. Identical field values always resolve to the same id, which
// is what makes the insert-if-absent upserts idempotent across runs.

// ContentHash produces a deterministic 16-hex-char id from one or more field
// values. Values are trimmed and case-folded before hashing, and blank input
// hashes the empty string, so every null/blank variant of a field collapses
// into the same dimension row instead of one row per null.
func ContentHash(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	sum := sha256.Sum256([]byte(strings.Join(norm, "|")))
	return hex.EncodeToString(sum[:8])
}

// WikibaseID extracts the ASN wikibase occurrence id from a record URL,
// e.g. "https://aviation-safety.net/wikibase/346470" -> "346470".
// Falls back to hashing the whole URL if no path segment is found.
func WikibaseID(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if i := strings.LastIndex(url, "/"); i >= 0 && i+1 < len(url) {
		return url[i+1:]
	}
	return ContentHash(url)
}

// OperatorNativeID resolves the operator dimension id from a free-text
// operator name. Names are non-identifying alone, so a content hash is used.
func OperatorNativeID(name string) string {
	return ContentHash(name)
}

// AircraftNativeID prefers the registration mark as the native id and falls
// back to a content hash of the remaining descriptive fields when the
// registration is blank.
func AircraftNativeID(registration string, fallback ...string) string {
	if reg := strings.TrimSpace(registration); reg != "" {
		return reg
	}
	return ContentHash(fallback...)
}

// LocationNativeID hashes the canonicalized place fields.
func LocationNativeID(parts ...string) string {
	return ContentHash(parts...)
}

// DateNativeID renders a canonical YYYYMMDD integer as a dimension id.
func DateNativeID(yyyymmdd int) string {
	return strconv.Itoa(yyyymmdd)
}

// TimeNativeID renders a time of day as a canonical HHMM dimension id.
func TimeNativeID(hour, minute int) string {
	return fmt.Sprintf("%02d%02d", hour, minute)
}
