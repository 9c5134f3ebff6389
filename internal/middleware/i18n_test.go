package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name           string
		xLocale        string
		acceptLanguage string
		country        string
		fallback       string
		want           string
	}{
		{name: "explicit header wins", xLocale: "id", acceptLanguage: "en-US", want: "id"},
		{name: "accept language indonesian", acceptLanguage: "id-ID,id;q=0.9,en;q=0.5", want: "id"},
		{name: "accept language english", acceptLanguage: "en-GB,en;q=0.8", want: "en"},
		{name: "weighted accept language", acceptLanguage: "fr;q=0.9,id;q=0.8", want: "id"},
		{name: "country id fallback", country: "ID", want: "id"},
		{name: "foreign country falls back to en", country: "SG", want: "en"},
		{name: "configured fallback", fallback: "id", want: "id"},
		{name: "default en", want: "en"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.xLocale != "" {
				req.Header.Set("X-Locale", tc.xLocale)
			}
			if tc.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tc.acceptLanguage)
			}
			if got := detectLocale(req, tc.fallback, tc.country); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountryFromHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "id")
	if got := resolveCountry(req, nil); got != "ID" {
		t.Fatalf("resolveCountry() = %q, want ID", got)
	}
}

func TestResolveCountryUsesLookup(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4455"
	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.7" {
			t.Fatalf("lookup received %q", ip)
		}
		return "sg", nil
	}
	if got := resolveCountry(req, lookup); got != "SG" {
		t.Fatalf("resolveCountry() = %q, want SG", got)
	}
}
