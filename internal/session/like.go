// Copyright (c) 2019, Gareth Watts
// All rights reserved.

package session

import (
	"regexp"
	"strings"
)

// compileLike turns a SQL LIKE pattern into a regexp.
// % matches any run of characters, _ matches exactly one. Matching is case-insensitive.
func compileLike(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	return regexp.Compile(b.String())
}
