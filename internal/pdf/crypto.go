package pdf

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PasswordCredentials contains the passwords for an encrypted PDF.
type PasswordCredentials struct {
	UserPassword  string `json:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty"`
}

// Empty reports whether no password is set.
func (c *PasswordCredentials) Empty() bool {
	return c == nil || (c.UserPassword == "" && c.OwnerPassword == "")
}

// readConfiguration creates a pdfcpu configuration carrying the credentials.
func readConfiguration(creds *PasswordCredentials) *model.Configuration {
	config := model.NewDefaultConfiguration()
	if creds != nil {
		if creds.UserPassword != "" {
			config.UserPW = creds.UserPassword
		}
		if creds.OwnerPassword != "" {
			config.OwnerPW = creds.OwnerPassword
		}
	}
	return config
}

// isEncryptionError reports whether a read error was caused by missing or
// wrong passwords.
func isEncryptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypted") ||
		strings.Contains(msg, "password") ||
		strings.Contains(msg, "decrypt")
}
