package security

import "time"

// Floors below which a setting is reported as a warning.
const (
	MaxRecommendedAccessTTL = time.Hour
	MinRecommendedMemoryKB  = 64 * 1024
	MinRecommendedTime      = 3
)

type PasswordReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

type Report struct {
	SigningAlgorithm string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	RefreshWindow    int
	Argon2           PasswordReport
	LockoutActive    bool
	LoginThrottle    bool
	RequestThrottle  bool
	RegisterThrottle bool
	GoogleSignIn     bool
	GitHubSignIn     bool
	AuditActive      bool
	VerificationTTL  time.Duration
	ResetTTL         time.Duration
	Warnings         []string
}

type ReportInput struct {
	SigningAlgorithm string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	RefreshWindow    int
	Password         PasswordReport
	LockoutEnabled   bool
	LockoutThreshold int
	LoginThrottle    bool
	RequestThrottle  bool
	RegisterThrottle bool
	GoogleConfigured bool
	GitHubConfigured bool
	AuditEnabled     bool
	VerificationTTL  time.Duration
	ResetTTL         time.Duration
}

func BuildReport(input ReportInput) Report {
	report := Report{
		SigningAlgorithm: input.SigningAlgorithm,
		AccessTTL:        input.AccessTTL,
		RefreshTTL:       input.RefreshTTL,
		RefreshWindow:    input.RefreshWindow,
		Argon2:           input.Password,
		LockoutActive:    input.LockoutEnabled && input.LockoutThreshold > 0,
		LoginThrottle:    input.LoginThrottle,
		RequestThrottle:  input.RequestThrottle,
		RegisterThrottle: input.RegisterThrottle,
		GoogleSignIn:     input.GoogleConfigured,
		GitHubSignIn:     input.GitHubConfigured,
		AuditActive:      input.AuditEnabled,
		VerificationTTL:  input.VerificationTTL,
		ResetTTL:         input.ResetTTL,
	}

	if input.AccessTTL > MaxRecommendedAccessTTL {
		report.Warnings = append(report.Warnings, "access token lifetime exceeds one hour")
	}
	if input.Password.Memory < MinRecommendedMemoryKB {
		report.Warnings = append(report.Warnings, "argon2 memory below 64 MiB")
	}
	if input.Password.Time < MinRecommendedTime {
		report.Warnings = append(report.Warnings, "argon2 time cost below 3")
	}
	if !report.LockoutActive {
		report.Warnings = append(report.Warnings, "account lockout disabled")
	}
	if !input.LoginThrottle {
		report.Warnings = append(report.Warnings, "per-IP login throttle disabled")
	}
	if input.ResetTTL > input.VerificationTTL {
		report.Warnings = append(report.Warnings, "reset tokens outlive verification tokens")
	}
	return report
}
