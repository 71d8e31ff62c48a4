// Package totp derives RFC 6238 codes for committee secrets. It uses
// the defaults every authenticator app assumes (HMAC-SHA1, 30 second
// steps, 6 digits) and nothing else is configurable.
package totp

import (
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/xlzd/gotp"
)

const (
	StepSeconds = 30
	Digits      = 6

	Step = StepSeconds * time.Second
)

type InvalidSecretError struct {
	Reason string
}

func (e *InvalidSecretError) Error() string {
	return "invalid totp secret: " + e.Reason
}

// Generate returns the code for the step containing t.
func Generate(secret string, t time.Time) (string, error) {
	normalized, err := Normalize(secret)
	if err != nil {
		return "", err
	}
	return gotp.NewDefaultTOTP(normalized).AtTime(t), nil
}

// TimeRemaining returns the number of whole seconds until the step
// containing t ends. Always in (0, StepSeconds].
func TimeRemaining(t time.Time) int64 {
	return StepSeconds - mod(t.Unix(), StepSeconds)
}

// EndTime is the step boundary following t. Every code generated
// for an instant in [EndTime(t) - Step, EndTime(t)) is the same.
func EndTime(t time.Time) time.Time {
	return time.Unix(t.Unix()+TimeRemaining(t), 0)
}

// Normalize strips whitespace, upper-cases and validates a base32
// secret. gotp panics on undecodable secrets, so anything handed to it
// has to go through here first.
func Normalize(secret string) (string, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(secret), ""))
	normalized = strings.TrimRight(normalized, "=")
	if normalized == "" {
		return "", &InvalidSecretError{Reason: "secret is empty"}
	}

	padded := normalized
	if missing := len(padded) % 8; missing != 0 {
		padded += strings.Repeat("=", 8-missing)
	}
	if _, err := base32.StdEncoding.DecodeString(padded); err != nil {
		return "", &InvalidSecretError{Reason: err.Error()}
	}
	return normalized, nil
}

// RandomSecret base32 encodes length random bytes, unpadded.
func RandomSecret(length int) string {
	return gotp.RandomSecret(length)
}

// ProvisioningURI is the otpauth:// URI authenticator apps scan.
func ProvisioningURI(secret string, account string, issuer string) (string, error) {
	normalized, err := Normalize(secret)
	if err != nil {
		return "", err
	}
	if account == "" {
		return "", fmt.Errorf("totp provisioning uri - account required")
	}
	return gotp.NewDefaultTOTP(normalized).ProvisioningUri(account, issuer), nil
}

// Unix times before 1970 still need a non-negative remainder.
func mod(a int64, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
