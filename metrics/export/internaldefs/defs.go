package internaldefs

import (
	authcore "github.com/MrEthical07/authcore"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful logins."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed logins."},
	{ID: authcore.MetricLoginRateLimited, Name: "authcore_login_rate_limited_total", Help: "Logins rejected by the per-IP throttle."},
	{ID: authcore.MetricLoginRejectedLocked, Name: "authcore_login_rejected_locked_total", Help: "Logins rejected because the account was locked."},
	{ID: authcore.MetricLoginRejectedDisabled, Name: "authcore_login_rejected_disabled_total", Help: "Logins rejected because the account was disabled."},
	{ID: authcore.MetricAccountLocked, Name: "authcore_account_locked_total", Help: "Accounts locked after repeated failures."},
	{ID: authcore.MetricTokenPairIssued, Name: "authcore_token_pair_issued_total", Help: "Issued access/refresh token pairs."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Rejected refresh attempts."},
	{ID: authcore.MetricAccessTokenBlacklisted, Name: "authcore_access_token_blacklisted_total", Help: "Access tokens added to the revocation ledger."},
	{ID: authcore.MetricBlacklistRejected, Name: "authcore_blacklist_rejected_total", Help: "Requests rejected because the access token was revoked."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Single-device logouts."},
	{ID: authcore.MetricLogoutAll, Name: "authcore_logout_all_total", Help: "Logout-all operations."},
	{ID: authcore.MetricAccountCreationSuccess, Name: "authcore_account_creation_success_total", Help: "Created accounts."},
	{ID: authcore.MetricAccountCreationDuplicate, Name: "authcore_account_creation_duplicate_total", Help: "Registrations rejected for a taken email."},
	{ID: authcore.MetricAccountCreationRateLimited, Name: "authcore_account_creation_rate_limited_total", Help: "Rate-limited registrations."},
	{ID: authcore.MetricPasswordChangeSuccess, Name: "authcore_password_change_success_total", Help: "Successful password changes."},
	{ID: authcore.MetricPasswordChangeInvalidOld, Name: "authcore_password_change_invalid_old_total", Help: "Password changes rejected for a wrong current password."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Password reset requests."},
	{ID: authcore.MetricPasswordResetConfirmSuccess, Name: "authcore_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: authcore.MetricPasswordResetConfirmFailure, Name: "authcore_password_reset_confirm_failure_total", Help: "Rejected password reset confirmations."},
	{ID: authcore.MetricEmailVerificationRequest, Name: "authcore_email_verification_request_total", Help: "Email verification requests."},
	{ID: authcore.MetricEmailVerificationSuccess, Name: "authcore_email_verification_success_total", Help: "Verified email addresses."},
	{ID: authcore.MetricEmailVerificationFailure, Name: "authcore_email_verification_failure_total", Help: "Rejected email verification tokens."},
	{ID: authcore.MetricFederatedSignInSuccess, Name: "authcore_federated_sign_in_success_total", Help: "Successful Google or GitHub sign-ins."},
	{ID: authcore.MetricFederatedSignInFailure, Name: "authcore_federated_sign_in_failure_total", Help: "Failed Google or GitHub sign-ins."},
	{ID: authcore.MetricFederatedAccountCreated, Name: "authcore_federated_account_created_total", Help: "Accounts created from a federated identity."},
	{ID: authcore.MetricAccountDisabled, Name: "authcore_account_disabled_total", Help: "Account disable operations."},
	{ID: authcore.MetricAccountEnabled, Name: "authcore_account_enabled_total", Help: "Account enable operations."},
	{ID: authcore.MetricRequestRateLimited, Name: "authcore_request_rate_limited_total", Help: "Reset or verification requests rejected by the throttle."},
	{ID: authcore.MetricServiceUnavailable, Name: "authcore_service_unavailable_total", Help: "Operations failed because a backing store was unreachable."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricAuthenticateLatency, Name: "authcore_authenticate_latency_seconds", Help: "Latency of bearer token authentication."},
}

// HistogramBounds are the upper bounds in seconds, matching the engine's
// bucket layout.
var HistogramBounds = []string{
	"0.001",
	"0.0025",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"+Inf",
}

// HistogramBoundValues mirrors HistogramBounds without the +Inf bucket.
var HistogramBoundValues = []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1}

// HistogramBoundSuffix is used for instrument names that cannot carry a dot.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_0025",
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"inf",
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "authcore_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// NormalizeBuckets copies raw into a fixed-size array, zero-filling
// missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
