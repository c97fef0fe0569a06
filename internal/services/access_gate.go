package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/lux23/settings-service/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier checks an admin credential before a mutation.
type CredentialVerifier interface {
	Verify(credential string) bool
}

// AccessGate verifies the admin PIN. A bcrypt PinHash wins over a plain Pin,
// which is compared in constant time over SHA-256 digests. With neither
// configured every check fails.
type AccessGate struct {
	pinHash   []byte
	pinDigest [sha256.Size]byte
	hasPin    bool
}

func NewAccessGate(cfg config.AdminConfig) *AccessGate {
	g := &AccessGate{}
	if hash := strings.TrimSpace(cfg.PinHash); hash != "" {
		g.pinHash = []byte(hash)
		return g
	}
	if pin := strings.TrimSpace(cfg.Pin); pin != "" {
		g.pinDigest = sha256.Sum256([]byte(pin))
		g.hasPin = true
	}
	return g
}

// Configured reports whether any admin secret is set.
func (g *AccessGate) Configured() bool {
	return len(g.pinHash) > 0 || g.hasPin
}

// Verify compares the credential exactly as supplied.
func (g *AccessGate) Verify(credential string) bool {
	if credential == "" {
		return false
	}
	if len(g.pinHash) > 0 {
		return bcrypt.CompareHashAndPassword(g.pinHash, []byte(credential)) == nil
	}
	if !g.hasPin {
		return false
	}
	digest := sha256.Sum256([]byte(credential))
	return subtle.ConstantTimeCompare(digest[:], g.pinDigest[:]) == 1
}

// HashPin produces a bcrypt hash suitable for admin.pin_hash.
func HashPin(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(pin)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
