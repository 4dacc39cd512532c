package youtrack

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"youtrack_helper/internal/model"
)

const formContentType = "application/x-www-form-urlencoded"

// do sends one request to serverURL+path. When user is set, each of its
// cookies is sent as its own Cookie header. A non-nil body is written as
// Latin-1 form data. The caller must close the response body.
func (c *Client) do(ctx context.Context, method, path string, user *model.User, body *string) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(latin1(*body))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, rd)
	if err != nil {
		return nil, err
	}
	// one connection per call
	req.Close = true
	for _, cookie := range user.Cookies() {
		req.Header.Add("Cookie", cookie)
	}
	if body != nil {
		req.Header.Set("Content-Type", formContentType)
	}

	c.log.Debug("youtrack request", zap.String("method", method), zap.String("path", path))
	return c.httpClient.Do(req)
}

// get runs an authenticated GET and hands a 200 response body to decode.
func (c *Client) get(ctx context.Context, op, path string, user *model.User, decode func(io.Reader) error) *Error {
	resp, err := c.do(ctx, http.MethodGet, path, user, nil)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp.StatusCode)
	}
	if err := decode(resp.Body); err != nil {
		return parseError(op, err)
	}
	return nil
}

// readLines reads r fully, terminating every line with a newline. Lines
// may be of any length; "\r\n" endings become "\n".
func readLines(r io.Reader) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			sb.WriteString(strings.TrimSuffix(line, "\r"))
			sb.WriteByte('\n')
		}
		if err != nil {
			return sb.String()
		}
	}
}

func form(s string) *string {
	return &s
}
