package services

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	JoinCodeLength   = 6
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateJoinCode returns a random uppercase alphanumeric code.
func GenerateJoinCode() (string, error) {
	var sb strings.Builder
	sb.Grow(JoinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := 0; i < JoinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeJoinCode uppercases and trims user input so codes match regardless of case.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(joinCodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
