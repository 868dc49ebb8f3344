package e2etest

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_unsafeCookieJar(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantSent bool
	}{
		{name: "localhost", url: "http://localhost:4000/api/healthy", wantSent: true},
		{name: "loopback ip", url: "http://127.0.0.1:4000/api/healthy", wantSent: true},
		{name: "remote over http", url: "http://example.com/api/healthy", wantSent: false},
		{name: "remote over https", url: "https://example.com/api/healthy", wantSent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar, err := newUnsafeCookieJar()
			require.NoError(t, err)
			u, err := url.Parse(tt.url)
			require.NoError(t, err)
			jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "abc", Path: "/", Secure: true}})
			if tt.wantSent {
				assert.Len(t, jar.Cookies(u), 1)
			} else {
				assert.Empty(t, jar.Cookies(u))
			}
		})
	}
}
