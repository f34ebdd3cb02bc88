package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/cb-discovery/internal/types"
)

// PasswordConfig holds configuration for password hashing and verification.
type PasswordConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewPasswordConfig validates the hashing settings.
func NewPasswordConfig(cost int, pepper string) (*PasswordConfig, error) {
	config := &PasswordConfig{BcryptCost: cost, Pepper: pepper}
	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// Password returns the validated hashing settings of a.
func (a AuthConfig) Password() (*PasswordConfig, error) {
	return NewPasswordConfig(a.BcryptCost, a.Pepper)
}

// normalize validates the configuration.
func (c *PasswordConfig) normalize() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be %d-14)", c.BcryptCost, bcrypt.MinCost)
	}
	return nil
}

func (c *PasswordConfig) peppered(pw string) []byte {
	return []byte(pw + c.Pepper)
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(c.peppered(pw), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), c.peppered(pw)) == nil
}

// RoleHashes holds the bcrypt hash of each enabled role's password.
type RoleHashes struct {
	config *PasswordConfig
	hashes map[types.Role]string
}

// HashRolePasswords hashes every configured role password. Roles without a
// password are left out and can never sign in.
func HashRolePasswords(pc *PasswordConfig, p RolePasswords) (*RoleHashes, error) {
	plain := map[types.Role]string{
		types.RoleUser:               p.User,
		types.RoleHead:               p.Head,
		types.RoleAdmin:              p.Admin,
		types.RoleDataInfrastructure: p.DataInfrastructure,
	}
	rh := &RoleHashes{config: pc, hashes: make(map[types.Role]string, len(plain))}
	for role, pw := range plain {
		if pw == "" {
			continue
		}
		hash, err := pc.HashPassword(pw)
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s password: %w", role, err)
		}
		rh.hashes[role] = hash
	}
	return rh, nil
}

// Enabled reports whether role has a password configured.
func (r *RoleHashes) Enabled(role types.Role) bool {
	_, ok := r.hashes[role]
	return ok
}

// Verify reports whether pw is the password of role.
func (r *RoleHashes) Verify(role types.Role, pw string) bool {
	hash, ok := r.hashes[role]
	if !ok {
		return false
	}
	return r.config.VerifyPassword(pw, hash)
}
