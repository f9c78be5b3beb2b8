package content

import "strings"

const upperhex = "0123456789ABCDEF"

// encodeURIComponent percent-encodes s the way browsers do for a single URI
// component: everything except A-Z a-z 0-9 and -_.!~*'() is escaped as UTF-8
// bytes. url.QueryEscape differs for spaces and the sub-delims.
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedComponent(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
