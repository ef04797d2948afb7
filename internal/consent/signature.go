package consent

import (
	"fmt"
	"strings"
)

// Signature builds the signature code describing flags. Necessary is always
// granted. Statistics-anonymous is not part of the code.
func Signature(f Flags) string {
	return fmt.Sprintf("n=1;p=%d;s=%d;m=%d", bit(f.Preferences), bit(f.Statistics), bit(f.Marketing))
}

// ParseSignature parses a signature code into its raw four flags without
// consulting any mapping table. StatisticsAnonymous mirrors Statistics.
func ParseSignature(code string) (Flags, error) {
	var f Flags
	seen := make(map[byte]bool, 4)

	for _, part := range strings.Split(normalizeCode(code), ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok || len(key) != 1 || (val != "0" && val != "1") {
			return DenyAll, fmt.Errorf("%w: %q", ErrMalformedSignature, code)
		}
		on := val == "1"

		switch key[0] {
		case 'n':
			if !on {
				return DenyAll, fmt.Errorf("%w: necessary cannot be denied in %q", ErrMalformedSignature, code)
			}
		case 'p':
			f.Preferences = on
		case 's':
			f.Statistics = on
			f.StatisticsAnonymous = on
		case 'm':
			f.Marketing = on
		default:
			return DenyAll, fmt.Errorf("%w: unknown flag %q in %q", ErrMalformedSignature, key, code)
		}
		seen[key[0]] = true
	}

	if len(seen) != 4 {
		return DenyAll, fmt.Errorf("%w: %q", ErrMalformedSignature, code)
	}
	return f, nil
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
