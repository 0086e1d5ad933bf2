// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrInvalidToken        = errors.New("invalid token format")
)

// shareTokenAlphabet matches the alphanumeric share tokens handed out in run links
const shareTokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateRunID creates an opaque, unguessable run identifier (UUIDv4)
func GenerateRunID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate run ID: %w", err)
	}
	return id.String(), nil
}

// GenerateSessionToken creates the bearer secret handed to anonymous participants.
// Every later read or write on the run must present it.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// ValidateSessionToken compares a presented token against the stored one in constant time
func ValidateSessionToken(presented, stored string) error {
	if presented == "" || stored == "" {
		return ErrInvalidSessionToken
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) != 1 {
		return ErrInvalidSessionToken
	}
	return nil
}

// GenerateShareToken creates a 32 character alphanumeric token for result links
func GenerateShareToken() (string, error) {
	const size = 32
	// Bytes at or above the largest multiple of the alphabet size are
	// discarded so every character is equally likely
	limit := byte(256 - 256%len(shareTokenAlphabet))

	token := make([]byte, 0, size)
	buf := make([]byte, size)
	for len(token) < size {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate share token: %w", err)
		}
		for _, c := range buf {
			if c >= limit {
				continue
			}
			token = append(token, shareTokenAlphabet[int(c)%len(shareTokenAlphabet)])
			if len(token) == size {
				break
			}
		}
	}
	return string(token), nil
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>" value
func ParseBearer(header string) (string, error) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// GenerateShareSlug creates a short, deterministic URL slug for a public flow
// Uses HMAC for determinism and base62 encoding for URL-friendliness
func GenerateShareSlug(flowID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(flowID))
	sum := h.Sum(nil)

	// Take first 8 bytes for a shorter slug
	shortHash := sum[:8]

	// Convert to base62 (alphanumeric only, no special chars)
	return base62Encode(shortHash)
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
// This creates URL-friendly slugs without special characters
func base62Encode(data []byte) string {
	// Convert bytes to a big integer
	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, shareTokenAlphabet[num%62])
		num /= 62
	}

	// Reverse the string
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
