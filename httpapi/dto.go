package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/store"
)

const maxJSONBodyBytes = 1 << 20

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type googleRequest struct {
	IDToken string `json:"idToken"`
}

type githubRequest struct {
	Code string `json:"code"`
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

// decode reads one JSON object into dst. Unknown fields, trailing data and
// oversized bodies are VALIDATION_ERROR.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, false)
}

// decodeOptional is decode for endpoints whose body may be absent. An empty
// body leaves dst untouched, whatever the Content-Length says.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	if r.Body == nil {
		if optional {
			return nil
		}
		return authcore.ErrValidation
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return authcore.ErrValidation
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return authcore.ErrValidation
	}
	return nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

type userResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Avatar          string     `json:"avatar,omitempty"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"isActive"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	HasGoogle       bool       `json:"hasGoogle"`
	HasGitHub       bool       `json:"hasGithub"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Avatar:          u.Avatar,
		Role:            u.Role,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		HasGoogle:       u.GoogleID != "",
		HasGitHub:       u.GitHubID != "",
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
	}
}

type authResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
	IsNewUser    bool         `json:"isNewUser,omitempty"`
}

func toAuthResponse(res *authcore.SignInResult) authResponse {
	return authResponse{
		User:         toUserResponse(res.User),
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresIn:    res.Tokens.ExpiresIn,
		IsNewUser:    res.Created,
	}
}
