// Package auth provides the credentials for client sessions: the per-run
// initial secret shown to the user at startup, and the durable reconnection
// tokens issued after a successful first authentication.
package auth

import (
	"crypto/subtle"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// SecretIssuer mints and holds the initial shared secret for one server run.
// The secret is generated once at construction and is immutable afterward.
// A client must present it verbatim on its first connection; reconnections
// use tokens instead (see TokenTable).
type SecretIssuer struct {
	secret string
}

// NewSecretIssuer generates a fresh high-entropy secret for this run.
func NewSecretIssuer() *SecretIssuer {
	return &SecretIssuer{secret: uuid.New().String()}
}

// Secret returns the initial secret. Used for display only; validation
// should go through Validate.
func (si *SecretIssuer) Secret() string {
	return si.secret
}

// Validate reports whether the presented credential matches the secret.
// The input is trimmed of surrounding whitespace and compared in constant
// time; any other byte difference fails.
func (si *SecretIssuer) Validate(presented string) bool {
	trimmed := strings.TrimSpace(presented)
	return subtle.ConstantTimeCompare([]byte(trimmed), []byte(si.secret)) == 1
}

// DisplayAuthInfo writes the connection URL and the initial secret to w,
// optionally followed by the secret rendered as a scannable QR code.
// This is how the companion app learns the credential for first-time auth.
func (si *SecretIssuer) DisplayAuthInfo(w io.Writer, url string, showQR bool) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Server URL:  %s\n", url)
	fmt.Fprintf(w, "Auth secret: %s\n", si.secret)

	if showQR {
		// Medium error correction keeps the code dense enough for a
		// terminal while staying scannable from a phone.
		qr, err := qrcode.New(si.secret, qrcode.Medium)
		if err != nil {
			fmt.Fprintf(w, "Error generating QR code: %v\n", err)
			return
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Scan to authenticate:")
		fmt.Fprint(w, qr.ToSmallString(false))
	}
	fmt.Fprintln(w)
}
