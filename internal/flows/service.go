package flows

import (
	"context"

	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/provider"
	"github.com/MrEthical07/authcore/store"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.ParseAccess != nil
}

func (s Service) IssueTokenPair(ctx context.Context, user *store.User) (TokenPair, error) {
	return RunIssueTokenPair(ctx, user, s.deps.Tokens)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	return RunRefresh(ctx, refreshToken, s.deps.Tokens)
}

func (s Service) VerifyAccess(tokenStr string) (*jwt.AccessClaims, error) {
	return RunVerifyAccess(tokenStr, s.deps.Validate)
}

func (s Service) Authenticate(ctx context.Context, tokenStr string) (*jwt.AccessClaims, error) {
	return RunAuthenticate(ctx, tokenStr, s.deps.Validate)
}

func (s Service) BlacklistAccessToken(ctx context.Context, tokenStr string) (bool, error) {
	return RunBlacklistAccessToken(ctx, tokenStr, s.deps.Logout)
}

func (s Service) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return RunRevokeRefreshToken(ctx, refreshToken, s.deps.Logout)
}

func (s Service) Logout(ctx context.Context, accessToken, refreshToken string) (bool, error) {
	return RunLogout(ctx, accessToken, refreshToken, s.deps.Logout)
}

func (s Service) LogoutAll(ctx context.Context, userID, accessToken string) (bool, error) {
	return RunLogoutAll(ctx, userID, accessToken, s.deps.Logout)
}

func (s Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	return RunLogin(ctx, email, password, s.deps.Login)
}

func (s Service) Register(ctx context.Context, in RegisterInput) (*store.User, error) {
	return RunRegister(ctx, in, s.deps.Account)
}

func (s Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	return RunChangePassword(ctx, userID, current, next, s.deps.Account)
}

func (s Service) SetActive(ctx context.Context, userID string, active bool) (*store.User, error) {
	return RunSetActive(ctx, userID, active, s.deps.Account)
}

func (s Service) IssueEmailVerification(ctx context.Context, user *store.User) error {
	return RunIssueOneTimeToken(ctx, user, s.deps.EmailVerification)
}

func (s Service) RequestEmailVerification(ctx context.Context, email string) (*store.User, error) {
	return RunRequestEmailVerification(ctx, email, s.deps.EmailVerification)
}

func (s Service) VerifyEmail(ctx context.Context, token string) (*store.User, error) {
	return RunVerifyEmail(ctx, token, s.deps.EmailVerification)
}

func (s Service) RequestPasswordReset(ctx context.Context, email string) (*store.User, error) {
	return RunRequestPasswordReset(ctx, email, s.deps.PasswordReset)
}

func (s Service) ResetPassword(ctx context.Context, token, newPassword string) (*store.User, error) {
	return RunResetPassword(ctx, token, newPassword, s.deps.PasswordReset)
}

func (s Service) Federated(ctx context.Context, id provider.Identity) (*FederatedResult, error) {
	return RunFederated(ctx, id, s.deps.Federated)
}
