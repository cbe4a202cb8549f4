package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImagePolicy(t *testing.T) {
	restricted := NewImagePolicy([]string{"Logos.Example.com", " cdn.example.org ", ""})
	open := NewImagePolicy(nil)

	tests := []struct {
		name       string
		url        string
		restricted bool
		open       bool
	}{
		{"Listed host", "https://logos.example.com/a.png", true, true},
		{"Listed host with port", "https://cdn.example.org:8443/a.png", true, true},
		{"Host matching is case-insensitive", "https://LOGOS.example.com/a.png", true, true},
		{"Unlisted host", "https://evil.example.net/a.png", false, true},
		{"Plain http", "http://logos.example.com/a.png", false, false},
		{"Data URL", "data:image/png;base64,AAAA", false, false},
		{"Relative path", "/static/logo.png", false, false},
		{"Empty", "", false, false},
		{"Malformed", "https://%zz", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.restricted, restricted.Allowed(tt.url))
			assert.Equal(t, tt.open, open.Allowed(tt.url))
		})
	}
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AT", initials("Acme Tooling"))
	assert.Equal(t, "FC", initials("fine components and tools"))
	assert.Equal(t, "Z", initials("  zeta "))
	assert.Equal(t, "", initials(""))
	assert.Equal(t, "ÉO", initials("Élan Outils"))
	assert.Equal(t, "ÑT", initials("ñandú tools"))
}
