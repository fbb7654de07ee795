package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToQueryString(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]string
		expected string
	}{
		{
			name:     "empty map",
			params:   map[string]string{},
			expected: "",
		},
		{
			name:     "nil map",
			params:   nil,
			expected: "",
		},
		{
			name:     "single pair",
			params:   map[string]string{"list": "true"},
			expected: "list=true",
		},
		{
			name:     "space encodes as plus",
			params:   map[string]string{"emoji": "sad panda"},
			expected: "emoji=sad+panda",
		},
		{
			name:     "keys are sorted",
			params:   map[string]string{"b": "2", "a": "1", "c": "3"},
			expected: "a=1&b=2&c=3",
		},
		{
			name:     "reserved characters are escaped",
			params:   map[string]string{"path": "a/b&c=d"},
			expected: "path=a%2Fb%26c%3Dd",
		},
		{
			name:     "empty value keeps the key",
			params:   map[string]string{"flag": ""},
			expected: "flag=",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, ToQueryString(test.params))
		})
	}
}

func TestPathWithQuery(t *testing.T) {
	assert.Equal(t, "/v1/secret", pathWithQuery("/v1/secret", nil))
	assert.Equal(t, "/v1/secret?list=true", pathWithQuery("/v1/secret", map[string]string{"list": "true"}))
	assert.Equal(t, "/v1/secret?a=1&list=true", pathWithQuery("/v1/secret?a=1", map[string]string{"list": "true"}))
}
