package downstream

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarFetch_OK(t *testing.T) {
	payload := []byte("\x89PNG\r\n\x1a\nfake")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	data, err := NewAvatarClient(NewClient(time.Second)).Fetch(context.Background(), server.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestAvatarFetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xff}, 2048))
	}))
	defer server.Close()

	c := NewAvatarClient(NewClient(time.Second))
	c.maxBytes = 1024

	_, err := c.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrAvatarTooLarge)
}

func TestAvatarFetch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewAvatarClient(NewClient(time.Second)).Fetch(context.Background(), server.URL)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestAvatarFetch_RejectsNonHTTP(t *testing.T) {
	c := NewAvatarClient(nil)
	for _, u := range []string{"", "file:///etc/passwd", "data:image/png;base64,AAAA", "/relative.png"} {
		_, err := c.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, ErrAvatarURL, u)
	}
}

func TestAvatarFetch_BlocksNonPublicAddresses(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("secret"))
	}))
	defer server.Close()

	c := NewAvatarClient(nil)
	_, err := c.Fetch(context.Background(), server.URL+"/latest/meta-data")

	assert.ErrorIs(t, err, ErrBlockedAddress)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, hits)
}

func TestPublicOnly(t *testing.T) {
	assert.ErrorIs(t, publicOnly("tcp4", "169.254.169.254:80", nil), ErrBlockedAddress)
	assert.ErrorIs(t, publicOnly("tcp6", "[::1]:443", nil), ErrBlockedAddress)
	assert.ErrorIs(t, publicOnly("tcp", "not-an-address", nil), ErrBlockedAddress)
	assert.NoError(t, publicOnly("tcp4", "93.184.216.34:443", nil))
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"8.8.8.8", true},
		{"2606:4700:4700::1111", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"224.0.0.1", false},
		{"::ffff:127.0.0.1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isPublic(netip.MustParseAddr(tt.addr)), tt.addr)
	}
}
