package downstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
)

const (
	avatarEndpoint = "avatar"

	MaxAvatarBytes = 5 << 20
)

var (
	ErrAvatarTooLarge = errors.New("avatar_too_large")
	ErrAvatarURL      = errors.New("avatar_url_invalid")
)

// AvatarClient downloads profile pictures for the OG card.
type AvatarClient struct {
	http     *Client
	maxBytes int64
}

// NewAvatarClient downloads through hc. A nil hc gets NewPublicClient, since
// avatar URLs are user-controlled.
func NewAvatarClient(hc *Client) *AvatarClient {
	if hc == nil {
		hc = NewPublicClient(DefaultTimeout)
	}
	return &AvatarClient{http: hc, maxBytes: MaxAvatarBytes}
}

// Fetch returns the raw image bytes at rawURL. Only absolute http(s) URLs are
// followed.
func (c *AvatarClient) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrAvatarURL, rawURL)
	}

	resp, err := c.http.Get(ctx, avatarEndpoint, u.String(), map[string]string{
		"Accept": "image/*",
	})
	if err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: avatarEndpoint, StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > c.maxBytes {
		return nil, ErrAvatarTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("avatar: read body: %w", ErrUnavailable)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, ErrAvatarTooLarge
	}
	return data, nil
}
