// Package handle verifies that item handles resolve. The check is advisory:
// a failed verification is logged, never fatal.
package handle

import (
	"fmt"
	"net/http"

	"github.com/sethgrid/pester"
)

// Checker performs HEAD requests against the handle resolver with retries.
type Checker struct {
	Client  *pester.Client
	BaseURL string
}

// NewChecker builds a checker against a handle resolver base URL, e.g.
// https://hdl.handle.net.
func NewChecker(baseURL string) *Checker {
	client := pester.New()
	client.MaxRetries = 3
	client.Backoff = pester.ExponentialBackoff
	client.SetRetryOnHTTP429(true)
	return &Checker{Client: client, BaseURL: baseURL}
}

// URL returns the public URL for a handle.
func (c *Checker) URL(handle string) string {
	return c.BaseURL + "/" + handle
}

// Verify checks the handle URL responds. Handle resolvers answer with a
// redirect to the repository, so 3xx counts as alive.
func (c *Checker) Verify(handle string) error {
	req, err := http.NewRequest(http.MethodHead, c.URL(handle), nil)
	if err != nil {
		return err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("verify handle %s: %w", handle, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("verify handle %s: status %d", handle, resp.StatusCode)
	}
	return nil
}
