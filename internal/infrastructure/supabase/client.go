// Package supabase talks to the hosted Supabase Auth and Storage HTTP APIs.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// User is the subset of the Auth user record this service reads.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Client is a Supabase API client authenticated with the service key.
type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

// New returns a client for the project at baseURL.
func New(baseURL, secretKey string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return &http.Client{Timeout: defaultTimeout}
	}
	return c.HTTP
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body interface{}) ([]byte, error) {
	if c.BaseURL == "" || c.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	// supabase-js sends the project key as apikey and the caller's JWT (or the key) as Bearer.
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody), Body: respBody}
	}
	return respBody, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		for _, s := range []string{payload.Msg, payload.Message, payload.Error} {
			if s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(body))
}

// GetUser resolves an access token to its user via GET /auth/v1/user.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("supabase user decode: %w", err)
	}
	return &u, nil
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"`
}

// CreateSignedUploadURL returns an absolute URL the browser can PUT the object to.
func (c *Client) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	endpoint := fmt.Sprintf("/storage/v1/object/upload/sign/%s/%s", bucket, path)
	body, err := c.do(ctx, http.MethodPost, endpoint, c.SecretKey, map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})
	if err != nil {
		return "", err
	}

	var data signedUploadResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		// The storage API returns the URL relative to /storage/v1.
		if !strings.HasPrefix(u, "/storage/v1") {
			u = "/storage/v1" + u
		}
		return strings.TrimRight(c.BaseURL, "/") + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(body))
}

// PublicURL is the public object URL for a file in a public bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(c.BaseURL, "/"), bucket, path)
}
