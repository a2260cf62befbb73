package domain

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrUnknownStatus signals a stored status value outside the closed
// enumeration. Callers must surface it, never coerce.
var ErrUnknownStatus = errors.New("unknown shipment status")

// CodePrefix is the operator-facing prefix of every human code.
const CodePrefix = "LOG"

const codeLength = 6

// reHumanCode validates the PREFIX-XXXXXX human code format.
var reHumanCode = regexp.MustCompile(`^[A-Z]+-[A-Z0-9]{6}$`)

// ValidateHumanCode validates the human code format.
func ValidateHumanCode(s string) bool {
	return reHumanCode.MatchString(s)
}

// NormalizeHumanCode upper-cases a code for case-insensitive lookup.
func NormalizeHumanCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NewHumanCode generates a short operator-facing code, PREFIX- plus six
// uppercase alphanumerics. Uniqueness is a store-level concern.
func NewHumanCode() string {
	var b strings.Builder
	b.WriteString(CodePrefix)
	b.WriteByte('-')

	n := 0
	for n < codeLength {
		raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
		for i := 0; i < len(raw) && n < codeLength; i++ {
			c := raw[i]
			if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
				b.WriteByte(c)
				n++
			}
		}
	}
	return b.String()
}
