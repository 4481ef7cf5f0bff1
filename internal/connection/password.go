package connection

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
	lowerChars       = "abcdefghijklmnopqrstuvwxyz"
	upperChars       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars       = "0123456789"

	// DefaultPasswordLength satisfies the Windows complexity policy with
	// room to spare.
	DefaultPasswordLength = 16
)

// GeneratePassword produces a random password containing at least one
// uppercase letter, one lowercase letter and one digit.
func GeneratePassword(length int) (string, error) {
	if length < 8 {
		length = DefaultPasswordLength
	}

	chars := make([]byte, length)
	for i := range chars {
		c, err := randomChar(passwordAlphabet)
		if err != nil {
			return "", err
		}
		chars[i] = c
	}

	// Patch in any missing character class, mirroring how the deployment
	// has always fixed up generated passwords.
	password := string(chars)
	if !strings.ContainsAny(password, upperChars) {
		c, err := randomChar(upperChars)
		if err != nil {
			return "", err
		}
		chars[length-1] = c
	}
	password = string(chars)
	if !strings.ContainsAny(password, lowerChars) {
		c, err := randomChar(lowerChars)
		if err != nil {
			return "", err
		}
		chars[length-2] = c
	}
	password = string(chars)
	if !strings.ContainsAny(password, digitChars) {
		c, err := randomChar(digitChars)
		if err != nil {
			return "", err
		}
		chars[length-3] = c
	}
	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("reading randomness: %w", err)
	}
	return set[n.Int64()], nil
}

// SetPasswordScript builds the PowerShell that sets the Administrator
// password on a Windows guest. Single quotes in the password are doubled
// for the single-quoted PowerShell literal.
func SetPasswordScript(password string) string {
	escaped := strings.ReplaceAll(password, "'", "''")
	return strings.Join([]string{
		fmt.Sprintf("$password = ConvertTo-SecureString '%s' -AsPlainText -Force", escaped),
		"Set-LocalUser -Name 'Administrator' -Password $password",
		"Write-Host 'Password set successfully'",
	}, "\n")
}
