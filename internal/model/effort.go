package model

import "strings"

// NormalizeEffort canonicalizes a reasoning effort value. Known levels are
// lowercased, unknown non-empty values are kept verbatim after trimming, and
// an empty value means the effort is genuinely unknown and maps to nil.
func NormalizeEffort(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	switch lower := strings.ToLower(v); lower {
	case "minimal", "low", "medium", "high":
		return &lower
	}
	return &v
}
