package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSuspiciousURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"link shortener", "https://bit.ly/3xYzAbC", true},
		{"shortener with uppercase host", "https://TinyURL.com/claim", true},
		{"ip literal host", "http://203.0.113.7/login", true},
		{"risky tld", "https://free-prizes.xyz", true},
		{"another risky tld", "http://account-verify.tk/secure", true},
		{"ordinary https domain", "https://www.example.com/page", false},
		{"subdomain of safe tld", "https://mail.google.com", false},
		{"unparseable", "http://%zz", false},
		{"no host", "not-a-url", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuspiciousURL(tt.url))
		})
	}
}
