package internal

import "fmt"

// Account is a named local identity holding one OAuth token. The
// client id/secret override is optional; when empty the built-in
// application credentials are used.
type Account struct {
	ID           string
	ClientID     string
	ClientSecret string
}

// ValidateAccountID reports whether id can name a stored account.
// Only alphanumeric ids are accepted, they double as database keys.
func ValidateAccountID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: account id cannot be empty", ErrInvalidArgument)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return fmt.Errorf("%w: %q is not an alphanumeric account id", ErrInvalidArgument, id)
		}
	}
	return nil
}
