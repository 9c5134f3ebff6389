package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Indonesian,
})

func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := resolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, strings.ToUpper(country))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string, country string) string {
	if v := r.Header.Get("X-Locale"); v != "" {
		return normalizeLocale(v)
	}
	if v := matchAcceptLanguage(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	if strings.EqualFold(country, "ID") {
		return "id"
	}
	if country != "" {
		return "en"
	}
	if fallback != "" {
		return fallback
	}
	return "en"
}

// matchAcceptLanguage negotiates the supported locale for an Accept-Language
// header, including quality weights.
func matchAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	tag, _, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	base, _ := tag.Base()
	return normalizeLocale(base.String())
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(locale)
	if strings.HasPrefix(locale, "id") {
		return "id"
	}
	return "en"
}

// ClientIP returns the best-effort client IP address for the request: the
// first parseable X-Forwarded-For entry, else the RemoteAddr host. The
// rate limiter keys on the same value, so both middlewares must agree on
// which address identifies the client.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip != "" && net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// resolveCountry resolves a best-effort ISO country code for the request:
// proxy headers first, then the GeoIP lookup when configured.
func resolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	headerHints := []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}
