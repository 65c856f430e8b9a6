package authcore

import "github.com/MrEthical07/authcore/internal/security"

// SecurityReport is a read-only snapshot of the engine's security posture.
// Warnings lists settings weaker than the shipped defaults.
type SecurityReport = security.Report

// PasswordConfigReport describes the Argon2id cost in effect.
type PasswordConfigReport = security.PasswordReport

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	cfg := e.config
	return security.BuildReport(security.ReportInput{
		SigningAlgorithm: cfg.JWT.SigningMethod,
		AccessTTL:        cfg.accessTTL(),
		RefreshTTL:       cfg.refreshTTL(),
		RefreshWindow:    cfg.Refresh.MaxTokens,
		Password: security.PasswordReport{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		LockoutEnabled:   cfg.Lockout.Enabled,
		LockoutThreshold: cfg.Lockout.Threshold,
		LoginThrottle:    cfg.RateLimit.EnableLoginIPThrottle,
		RequestThrottle:  cfg.RateLimit.EnableRequestThrottle,
		RegisterThrottle: cfg.RateLimit.EnableRegisterThrottle,
		GoogleConfigured: e.google != nil,
		GitHubConfigured: e.github != nil,
		AuditEnabled:     cfg.Audit.Enabled,
		VerificationTTL:  cfg.OneTime.VerificationTTL,
		ResetTTL:         cfg.OneTime.ResetTTL,
	})
}
