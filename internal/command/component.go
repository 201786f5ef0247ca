package command

import "strings"

// DynamicMarker prefixes component ids that carry a payload:
// "@<identity>@<payload>@<payload>...".
const DynamicMarker = "@"

// DynamicID builds a dynamic component id.
func DynamicID(identity string, payload ...string) string {
	return DynamicMarker + identity + DynamicMarker + strings.Join(payload, DynamicMarker)
}

// ParseComponentID splits a custom id into the identity to resolve and any
// dynamic payload. Plain ids come back unchanged with a nil payload.
func ParseComponentID(customID string) (identity string, payload []string) {
	if !strings.HasPrefix(customID, DynamicMarker) {
		return customID, nil
	}
	rest := customID[len(DynamicMarker):]
	identity, tail, found := strings.Cut(rest, DynamicMarker)
	if !found || tail == "" {
		return identity, nil
	}
	return identity, strings.Split(tail, DynamicMarker)
}
