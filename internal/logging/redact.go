package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "[redacted]"

// Telegram puts the bot token in the URL path and TMDB takes the key as a
// query parameter; both show up in transport errors.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(/bot)[0-9]+:[A-Za-z0-9_-]+`),
	regexp.MustCompile(`((?:api_key|token)=)[^&\s"']+`),
}

// RedactString masks bot tokens and API keys embedded in s.
func RedactString(s string) string {
	for _, re := range secretPatterns {
		s = re.ReplaceAllString(s, "${1}"+redacted)
	}
	return s
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return key == "authorization" || key == "api_key" || strings.HasSuffix(key, "_token") || key == "token"
}

func redactAttr(attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()
	if isSecretKey(attr.Key) && value.Kind() == slog.KindString && value.String() != "" {
		return slog.String(attr.Key, redacted)
	}
	switch value.Kind() {
	case slog.KindString:
		if masked := RedactString(value.String()); masked != value.String() {
			return slog.String(attr.Key, masked)
		}
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			msg := err.Error()
			if masked := RedactString(msg); masked != msg {
				return slog.String(attr.Key, masked)
			}
		}
	}
	return attr
}
