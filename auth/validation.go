package auth

import (
	"net/mail"
	"strings"

	"github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/jrsteele09/go-expense-tracker/users"
)

const (
	minNameLength  = 2
	maxNameLength  = 100
	maxEmailLength = 254
)

// ValidateEmail checks the address has a single mailbox with a domain
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.BadRequest("email is required")
	}
	if len(email) > maxEmailLength {
		return errors.BadRequest("email is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return errors.BadRequest("email must be a valid email address")
	}
	return nil
}

func (p *RegisterParameters) Validate() error {
	if err := ValidateEmail(p.Email); err != nil {
		return err
	}
	name := strings.TrimSpace(p.Name)
	if len(name) < minNameLength || len(name) > maxNameLength {
		return errors.BadRequest("name must be between 2 and 100 characters")
	}
	if err := users.ValidatePasswordStrength(p.Password); err != nil {
		return errors.BadRequest(err.Error())
	}
	return nil
}

func (p *LoginParameters) Validate() error {
	if strings.TrimSpace(p.Email) == "" {
		return errors.BadRequest("email is required")
	}
	if p.Password == "" {
		return errors.BadRequest("password is required")
	}
	return nil
}

func (p *ChangePasswordParameters) Validate() error {
	if p.CurrentPassword == "" {
		return errors.BadRequest("currentPassword is required")
	}
	if p.NewPassword != p.ConfirmNewPassword {
		return errors.BadRequest(msgPasswordsDontMatch)
	}
	if err := users.ValidatePasswordStrength(p.NewPassword); err != nil {
		return errors.BadRequest(err.Error())
	}
	return nil
}
