package feed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/punchamoorthee/settlebank/internal/domain"
)

// ParseTimestamp packs "yy:mm:dd:hh:mm:ss" into a single integer by dropping
// the separators. Bare digit strings are accepted as already packed.
func ParseTimestamp(s string) (domain.Timestamp, error) {
	packed := strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	if packed == "" {
		return 0, fmt.Errorf("%w: empty timestamp", ErrMalformed)
	}
	n, err := strconv.ParseUint(packed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp %q", ErrMalformed, s)
	}
	return domain.Timestamp(n), nil
}

// FormatTimestamp renders t in the colon-separated form used on input.
func FormatTimestamp(t domain.Timestamp) string {
	digits := fmt.Sprintf("%012d", uint64(t))
	// the year field takes whatever is left over
	split := len(digits) - 10
	fields := []string{digits[:split]}
	for i := split; i < len(digits); i += 2 {
		fields = append(fields, digits[i:i+2])
	}
	return strings.Join(fields, ":")
}
