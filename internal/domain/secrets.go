// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "strings"

// RedactedStr replaces secrets in logs and printed configuration.
const RedactedStr = "<redacted>"

func RedactString(s string) string {
	if s == "" {
		return ""
	}
	return RedactedStr
}

// RedactBasicAuthUsers keeps user names and hides passwords in a
// "user:password,user2:password2" list.
func RedactBasicAuthUsers(raw string) string {
	entries := strings.Split(raw, ",")
	for i, entry := range entries {
		user, pass, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			continue
		}
		entries[i] = user + ":" + RedactString(pass)
	}
	return strings.Join(entries, ",")
}
