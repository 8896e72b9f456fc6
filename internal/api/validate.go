package api

import "storefront/internal/model"

// minCredentialLength is the backend's rule for usernames and passwords.
const minCredentialLength = 6

// ValidateAuthInput checks login/register input locally, before any network
// call, mirroring the rules the backend enforces. The first violated rule
// wins and its message is user-facing.
func ValidateAuthInput(username, password string) error {
	if username == "" {
		return model.NewValidationError("Username", "is a required field")
	}
	if len(username) < minCredentialLength {
		return model.NewValidationError("Username", "must be at least 6 characters")
	}
	if password == "" {
		return model.NewValidationError("Password", "is a required field")
	}
	if len(password) < minCredentialLength {
		return model.NewValidationError("Password", "must be at least 6 characters")
	}
	return nil
}
