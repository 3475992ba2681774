package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"prism/internal/session"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// SignIn exchanges credentials for a session. The caller decides where the
// session is stored.
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return session.Session{}, errors.New("email and password are required")
	}
	return c.authenticate(ctx, "sign_in", "/api/auth/signin", signInRequest{Email: email, Password: password})
}

func (c *Client) SignUp(ctx context.Context, name, email, password string) (session.Session, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return session.Session{}, errors.New("name, email and password are required")
	}
	return c.authenticate(ctx, "sign_up", "/api/auth/signup", signUpRequest{Name: name, Email: email, Password: password})
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any) (session.Session, error) {
	var res authResponse
	if err := c.do(ctx, call{op: op, method: http.MethodPost, path: path, body: body, out: &res}); err != nil {
		return session.Session{}, err
	}
	if res.Token == "" {
		return session.Session{}, &RequestError{Op: op, StatusCode: http.StatusOK, Err: errors.New("response has no token")}
	}
	return session.Session{Token: res.Token, User: res.User}, nil
}
