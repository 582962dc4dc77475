// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"strings"
	"unicode"
)

// KebabCase converts "marginStart" to "margin-start".
func KebabCase(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '_' {
			sb.WriteByte('-')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// CamelCase converts "margin-start" to "marginStart".
func CamelCase(s string) string {
	parts := strings.Split(s, "-")
	var sb strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			sb.WriteString(part)
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}

// PascalCase converts "margin-start" to "MarginStart".
func PascalCase(s string) string {
	c := CamelCase(s)
	if c == "" {
		return c
	}
	return strings.ToUpper(c[:1]) + c[1:]
}

// IsEventProp reports whether a prop key follows the onX naming convention.
func IsEventProp(key string) bool {
	if len(key) < 3 || !strings.HasPrefix(key, "on") {
		return false
	}
	return unicode.IsUpper(rune(key[2]))
}

// EventName maps an event-handler prop ("onStateFlagsChanged") to its native
// event name ("state-flags-changed").
func EventName(propKey string) string {
	if !IsEventProp(propKey) {
		return ""
	}
	return KebabCase(propKey[2:])
}
