package client

import (
	"net/url"
	"strings"
)

// ToQueryString form-encodes a parameter map into a URL query string. Spaces
// encode as "+" per the form-encoding convention, not "%20". Keys are emitted
// in sorted order.
func ToQueryString(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	return values.Encode()
}

// pathWithQuery appends form-encoded params to a request path.
func pathWithQuery(path string, params map[string]string) string {
	qs := ToQueryString(params)
	if qs == "" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + qs
	}
	return path + "?" + qs
}
