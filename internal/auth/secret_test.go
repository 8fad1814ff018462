package auth

import (
	"strings"
	"testing"
)

func TestSecretIssuerValidate(t *testing.T) {
	si := NewSecretIssuer()
	secret := si.Secret()

	if secret == "" {
		t.Fatal("expected a non-empty secret")
	}

	tests := []struct {
		name      string
		presented string
		want      bool
	}{
		{"exact match", secret, true},
		{"leading whitespace", "  " + secret, true},
		{"trailing newline", secret + "\n", true},
		{"both trimmed", "\t" + secret + " \n", true},
		{"empty", "", false},
		{"wrong secret", "not-the-secret", false},
		{"one byte off", secret[:len(secret)-1] + "x", false},
		{"prefix only", secret[:len(secret)-1], false},
		{"case changed", strings.ToUpper(secret), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := si.Validate(tt.presented); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.presented, got, tt.want)
			}
		})
	}
}

func TestSecretIssuerUniquePerRun(t *testing.T) {
	a := NewSecretIssuer()
	b := NewSecretIssuer()
	if a.Secret() == b.Secret() {
		t.Fatal("two issuers produced the same secret")
	}
}

func TestDisplayAuthInfo(t *testing.T) {
	si := NewSecretIssuer()

	var buf strings.Builder
	si.DisplayAuthInfo(&buf, "ws://127.0.0.1:9001/ws", false)

	out := buf.String()
	if !strings.Contains(out, si.Secret()) {
		t.Error("output does not contain the secret")
	}
	if !strings.Contains(out, "ws://127.0.0.1:9001/ws") {
		t.Error("output does not contain the URL")
	}
	if strings.Contains(out, "Scan to authenticate") {
		t.Error("QR section rendered with showQR=false")
	}

	buf.Reset()
	si.DisplayAuthInfo(&buf, "ws://127.0.0.1:9001/ws", true)
	if !strings.Contains(buf.String(), "Scan to authenticate") {
		t.Error("QR section missing with showQR=true")
	}
}
