package feed

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/punchamoorthee/settlebank/internal/domain"
)

// ReadRegistrations parses REG_TIMESTAMP|USER_ID|PIN|STARTING_BALANCE lines.
// Blank lines are skipped.
func ReadRegistrations(r io.Reader) ([]domain.Registration, error) {
	var regs []domain.Registration
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		reg, err := parseRegistration(text)
		if err != nil {
			return nil, fmt.Errorf("registration line %d: %w", line, err)
		}
		regs = append(regs, reg)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read registrations: %w", err)
	}
	return regs, nil
}

func parseRegistration(text string) (domain.Registration, error) {
	parts := strings.Split(text, "|")
	if len(parts) != 4 {
		return domain.Registration{}, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformed, len(parts))
	}
	at, err := ParseTimestamp(parts[0])
	if err != nil {
		return domain.Registration{}, err
	}
	balance, err := strconv.ParseUint(strings.TrimSpace(parts[3]), 10, 64)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("%w: balance %q", ErrMalformed, parts[3])
	}
	if parts[1] == "" {
		return domain.Registration{}, fmt.Errorf("%w: empty user id", ErrMalformed)
	}
	return domain.Registration{
		RegisteredAt: at,
		ID:           parts[1],
		PIN:          parts[2],
		Balance:      balance,
	}, nil
}

// WriteRegistrations is the inverse of ReadRegistrations.
func WriteRegistrations(w io.Writer, regs []domain.Registration) error {
	bw := bufio.NewWriter(w)
	for _, r := range regs {
		if _, err := fmt.Fprintf(bw, "%s|%s|%s|%d\n", FormatTimestamp(r.RegisteredAt), r.ID, r.PIN, r.Balance); err != nil {
			return err
		}
	}
	return bw.Flush()
}
