package manifest

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GeneratePassword returns a random credential safe to embed unquoted in the
// environment file and in connection strings.
func GeneratePassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
