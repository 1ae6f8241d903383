package service

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/dom/notely/internal/domain"
)

// required fails with ErrValidation naming every blank field.
func required(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func field(name, value string) [2]string {
	return [2]string{name, value}
}

func validEmail(email string) error {
	// ParseAddress also accepts display-name forms; only a bare address is stored.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	return nil
}
