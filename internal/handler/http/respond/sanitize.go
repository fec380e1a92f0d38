package respond

import (
	"regexp"
)

// Provider credentials travel as query parameters (?key=...) or bearer
// headers, and HTTPError messages include the full request URL, so any
// error string that crosses the logging boundary has to be masked first.
var (
	queryKeyPattern = regexp.MustCompile(`(?i)([?&](?:key|apikey|api_key|token|access_token)=)[^&\s":]+`)
	bearerPattern   = regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9\-._~+/]+=*`)
	// DSN-style user:password@host fragments.
	urlPasswordPattern = regexp.MustCompile(`://([^:/\s]+):([^@/\s]+)@`)
)

// SanitizeError returns the error message with credential material masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = queryKeyPattern.ReplaceAllString(msg, "${1}****")
	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	msg = urlPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
