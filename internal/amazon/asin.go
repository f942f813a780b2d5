package amazon

import (
	"fmt"
	"regexp"
	"strings"

	domain "github.com/mclarke/listing-gateway/pkg/types"
)

var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// NormalizeASIN validates a 10-character Amazon catalog identifier,
// accepting any case and returning the uppercase form. Malformed input
// fails with ErrInvalidIdentifier before any network call happens.
func NormalizeASIN(id string) (string, error) {
	up := strings.ToUpper(strings.TrimSpace(id))
	if !asinPattern.MatchString(up) {
		return "", fmt.Errorf("%w: %q is not a valid ASIN", domain.ErrInvalidIdentifier, id)
	}
	return up, nil
}
