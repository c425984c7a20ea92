// Package hotkey looks up the hotkey currently published for a coordinator wallet.
package hotkey

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	DefaultTimeout = 10 * time.Second

	// response bodies larger than this are not hotkey lookups
	maxBodySize = 1 << 16
)

var ErrUnexpectedStatus = errors.New("hotkey service: unexpected status")

type Client struct {
	endpoint string
	http     *http.Client
	logger   logrus.FieldLogger
}

func New(endpoint string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// CurrentValue returns the hotkey registered for wallet, nil when the service does
// not know the wallet.
func (c *Client) CurrentValue(ctx context.Context, wallet string) (*string, error) {
	if wallet == "" {
		return nil, errors.New("wallet address is required")
	}

	target := fmt.Sprintf("%shotkeys?wallet=%s", c.endpoint, url.QueryEscape(wallet))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build hotkey request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch hotkey")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read hotkey response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WithFields(logrus.Fields{"wallet": wallet}).Debug("No hotkey for wallet")
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.WithFields(logrus.Fields{
			"wallet": wallet,
			"status": resp.StatusCode,
			"body":   string(body),
		}).Warn("Hotkey service error")
		return nil, errors.Wrapf(ErrUnexpectedStatus, "status %d", resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return nil, errors.New("hotkey service returned invalid json")
	}
	result := gjson.GetBytes(body, "hotkey")
	if !result.Exists() || result.Type == gjson.Null || result.String() == "" {
		return nil, nil
	}
	value := result.String()
	return &value, nil
}
