// Package auth gates dashboard access with a single shared admin
// credential stored as a SHA-256 hex digest.
//
// The digest is unsalted and un-iterated, kept for compatibility with
// hashes generated by earlier deployments. If real access control is ever
// needed this must move to a salted, iterated KDF.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/appraise-tools/appraise/internal/common"
)

// HashPassword returns the hex SHA-256 digest of a password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Check compares the submitted password against a stored hex digest. Only
// digests are compared, never raw passwords, and the comparison is
// constant-time over the full digest. A missing stored digest always
// denies.
func Check(password, storedHexDigest string) error {
	if storedHexDigest == "" {
		return common.ErrAuthDenied
	}

	submitted := HashPassword(password)
	stored := strings.ToLower(strings.TrimSpace(storedHexDigest))
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) != 1 {
		return common.ErrAuthDenied
	}
	return nil
}
