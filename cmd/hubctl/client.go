package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"paymenthub/internal/amount"
	"paymenthub/internal/domain"
	"paymenthub/internal/middleware"
)

// options are the persistent flags shared by every command.
type options struct {
	server   string
	token    string
	as       string
	secret   string
	issuer   string
	decimals int32
	timeout  time.Duration
}

func (o *options) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.server, "server", envOr("HUBCTL_SERVER", "http://localhost:8080"), "Base URL of the paymenthub API")
	f.StringVar(&o.token, "token", os.Getenv("HUBCTL_TOKEN"), "Bearer token (minted from --secret and --as when empty)")
	f.StringVar(&o.as, "as", os.Getenv("HUBCTL_ADDRESS"), "Caller address used to mint a token")
	f.StringVar(&o.secret, "secret", os.Getenv("HUB_AUTH__SECRET"), "Shared HS256 secret")
	f.StringVar(&o.issuer, "issuer", envOr("HUB_AUTH__ISSUER", "paymenthub"), "Token issuer")
	f.Int32Var(&o.decimals, "decimals", 6, "Token decimals used to convert amounts")
	f.DurationVar(&o.timeout, "timeout", 10*time.Second, "Request timeout")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (o *options) authConfig() middleware.AuthConfig {
	return middleware.AuthConfig{Secret: []byte(o.secret), Issuer: o.issuer}
}

// bearer returns --token or mints one for --as.
func (o *options) bearer() (string, error) {
	if o.token != "" {
		return o.token, nil
	}
	if o.as == "" || o.secret == "" {
		return "", errors.New("either --token or both --as and --secret are required")
	}
	addr, err := domain.ParseAddress(o.as)
	if err != nil {
		return "", fmt.Errorf("--as: %w", err)
	}
	return middleware.IssueToken(o.authConfig(), addr, 5*time.Minute)
}

// units converts a human amount such as "12.50" to base units.
func (o *options) units(s string) (uint64, error) {
	v, err := amount.Parse(s, o.decimals)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}

type apiError struct {
	Error string `json:"error"`
}

// call sends one request and copies the response body to out.
func (o *options) call(ctx context.Context, method, path string, body any, out io.Writer) error {
	token, err := o.bearer()
	if err != nil {
		return err
	}

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(o.server, "/")+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var pretty bytes.Buffer
		if json.Indent(&pretty, respBody, "", "  ") == nil {
			respBody = append(pretty.Bytes(), '\n')
		}
	}
	_, err = out.Write(respBody)
	return err
}
