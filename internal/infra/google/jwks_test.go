package google

import "testing"

func TestAudienceMatches(t *testing.T) {
	cases := []struct {
		name     string
		aud      any
		clientID string
		want     bool
	}{
		{name: "string match", aud: "client", clientID: "client", want: true},
		{name: "string mismatch", aud: "client", clientID: "other", want: false},
		{name: "slice any match", aud: []any{"other", "client"}, clientID: "client", want: true},
		{name: "slice any mismatch", aud: []any{"other", 1}, clientID: "client", want: false},
		{name: "slice string match", aud: []string{"client", "alt"}, clientID: "client", want: true},
		{name: "nil aud", aud: nil, clientID: "client", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := audienceMatches(tc.aud, tc.clientID); got != tc.want {
				t.Fatalf("audienceMatches(%v, %q) = %v, want %v", tc.aud, tc.clientID, got, tc.want)
			}
		})
	}
}

func TestIssuerMatches(t *testing.T) {
	cases := []struct {
		name     string
		iss      any
		expected string
		want     bool
	}{
		{name: "exact", iss: "https://accounts.google.com", expected: "https://accounts.google.com", want: true},
		{name: "bare issuer claim", iss: "accounts.google.com", expected: "https://accounts.google.com", want: true},
		{name: "bare expected", iss: "https://accounts.google.com", expected: "accounts.google.com", want: true},
		{name: "mismatch", iss: "https://evil.example.com", expected: "https://accounts.google.com", want: false},
		{name: "non-string claim", iss: 42, expected: "https://accounts.google.com", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := issuerMatches(tc.iss, tc.expected); got != tc.want {
				t.Fatalf("issuerMatches(%v, %q) = %v, want %v", tc.iss, tc.expected, got, tc.want)
			}
		})
	}
}
