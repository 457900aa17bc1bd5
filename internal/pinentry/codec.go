// Package pinentry implements the client side of the pinentry control
// protocol: the percent-escape codec for command arguments, the child-process
// transport carrying newline-terminated lines over a private pipe pair, and
// the command/response dialogue that collects a secret from the agent.
package pinentry

// Escape percent-encodes the three protocol metacharacters: '%' becomes %25,
// CR becomes %0d and LF becomes %0a. Every other byte is copied unchanged.
// A nil input passes through as nil. The result is always a fresh allocation
// so callers can wipe it independently of the input.
func Escape(in []byte) []byte {
	if in == nil {
		return nil
	}

	extra := 0
	for _, b := range in {
		if b == '%' || b == '\r' || b == '\n' {
			extra += 2
		}
	}

	out := make([]byte, 0, len(in)+extra)
	for _, b := range in {
		switch b {
		case '%':
			out = append(out, '%', '2', '5')
		case '\r':
			out = append(out, '%', '0', 'd')
		case '\n':
			out = append(out, '%', '0', 'a')
		default:
			out = append(out, b)
		}
	}
	return out
}

// Unescape reverses Escape: each '%' consumes exactly two following hex
// digits and decodes one byte. A '%' with fewer than two bytes after it ends
// decoding at that point; the incomplete tail is discarded rather than
// reported as an error. A nil input passes through as nil.
func Unescape(in []byte) []byte {
	if in == nil {
		return nil
	}

	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		b := in[i]
		if b != '%' {
			out = append(out, b)
			continue
		}
		if i+2 >= len(in) {
			break
		}
		out = append(out, hexVal(in[i+1])<<4|hexVal(in[i+2]))
		i += 2
	}
	return out
}

// EscapeString is Escape for string arguments such as OPTION values.
func EscapeString(s string) string {
	return string(Escape([]byte(s)))
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
