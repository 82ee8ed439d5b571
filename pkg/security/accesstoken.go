package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// galleryTokenBytes yields a 192-bit token, 32 characters after base64url
// encoding. Collisions are vanishingly unlikely but the unique index on
// guests.access_token is still the source of truth.
const galleryTokenBytes = 24

// GenerateGalleryToken returns an opaque URL-safe token used as a guest's
// gallery credential. The token carries no embedded data; resolution always
// goes through storage.
func GenerateGalleryToken() (string, error) {
	bytes := make([]byte, galleryTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating gallery token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
