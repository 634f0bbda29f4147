package util

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
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

// fallbackFilename is used when a URL has no usable last path segment.
const fallbackFilename = "tlds.txt"

// maxFilenameLength keeps generated names well under common filesystem limits.
const maxFilenameLength = 100

// SanitizeFilename creates a filesystem-safe filename from an arbitrary string.
// Replaces common problematic characters with underscores and limits the length to
// maxFilenameLength bytes without splitting a UTF-8 sequence.
func SanitizeFilename(input string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, input)
	if len(replaced) <= maxFilenameLength {
		return replaced
	}
	// Cut in bytes, backing off to a rune boundary.
	n := maxFilenameLength
	for n > 0 && !utf8.RuneStart(replaced[n]) {
		n--
	}
	return replaced[:n]
}

// FilenameFromURL picks a local filename for a downloaded list: the last segment of
// the URL path, sanitized. Query strings and fragments are ignored.
func FilenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fallbackFilename
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" || base == ".." {
		return fallbackFilename
	}
	return SanitizeFilename(base)
}
