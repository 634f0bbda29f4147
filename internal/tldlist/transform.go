package tldlist

/*
rxtld — fetch and tidy the IANA list of top-level domains
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// acePrefix marks a punycode-encoded label.
const acePrefix = "xn--"

// Filter drops every line whose text contains any of patterns. Matching is
// case-sensitive and unanchored, against the untrimmed text. With no patterns the
// input is returned as is.
func Filter(lines []Line, patterns []string) []Line {
	if len(patterns) == 0 {
		return lines
	}

	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if !containsAny(l.Text, patterns) {
			out = append(out, l)
		}
	}
	return out
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Normalize lowercases every entry with Unicode case mapping when lowercase is set.
// Otherwise the input is returned as is.
func Normalize(texts []string, lowercase bool) []string {
	if !lowercase {
		return texts
	}

	// A Caser keeps state and is not safe to share, so build one per call.
	caser := cases.Lower(language.Und)
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = caser.String(t)
	}
	return out
}

// DecodeIDN renders punycode entries (xn--, any case) in Unicode, e.g. XN--P1AI
// becomes рф. Entries that are not punycode, or fail to decode, are kept unchanged.
func DecodeIDN(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = decodeLabel(t)
	}
	return out
}

func decodeLabel(s string) string {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, acePrefix) {
		return s
	}
	u, err := idna.Punycode.ToUnicode(lower)
	if err != nil || u == lower {
		return s
	}
	return u
}
