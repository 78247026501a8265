package httpserver

import (
	"fmt"
	"net/mail"
	"unicode"

	"github.com/taskhub/taskhub/internal/cpf"
)

func validateRegister(req *registerRequest) error {
	if req.Login == "" {
		return fmt.Errorf("login is required")
	}
	if !cpf.Valid(req.Login) {
		return fmt.Errorf("login must be a valid cpf")
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if req.User.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !cpf.Valid(req.User.CPF) {
		return fmt.Errorf("invalid cpf")
	}
	if _, err := mail.ParseAddress(req.User.Email); err != nil {
		return fmt.Errorf("invalid email")
	}
	return nil
}

// validatePassword enforces the strong-password rule: at least 8 characters
// with an upper case letter, a lower case letter, a digit and a symbol.
func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return fmt.Errorf("password must contain upper and lower case letters, a digit and a symbol")
	}
	return nil
}
