package internaldefs

import (
	compassAuth "github.com/careercompass/compassAuth"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   compassAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   compassAuth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: compassAuth.MetricRestoreAuthenticated, Name: "compass_auth_restore_authenticated_total", Help: "Restores that resumed a live session."},
	{ID: compassAuth.MetricRestoreAnonymous, Name: "compass_auth_restore_anonymous_total", Help: "Restores that settled without a session."},
	{ID: compassAuth.MetricRestoreFailure, Name: "compass_auth_restore_failure_total", Help: "Restores degraded by a store failure."},
	{ID: compassAuth.MetricRegisterSuccess, Name: "compass_auth_register_success_total", Help: "Successful registrations."},
	{ID: compassAuth.MetricRegisterDuplicate, Name: "compass_auth_register_duplicate_total", Help: "Registrations rejected for a taken email."},
	{ID: compassAuth.MetricRegisterInvalid, Name: "compass_auth_register_invalid_total", Help: "Registrations rejected by input validation."},
	{ID: compassAuth.MetricRegisterFailure, Name: "compass_auth_register_failure_total", Help: "Registrations failed by the store."},
	{ID: compassAuth.MetricLoginSuccess, Name: "compass_auth_login_success_total", Help: "Successful logins."},
	{ID: compassAuth.MetricLoginAdmin, Name: "compass_auth_login_admin_total", Help: "Successful logins with the admin role."},
	{ID: compassAuth.MetricLoginFailure, Name: "compass_auth_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: compassAuth.MetricLoginPersistFailure, Name: "compass_auth_login_persist_failure_total", Help: "Logins whose session could not be persisted."},
	{ID: compassAuth.MetricLogout, Name: "compass_auth_logout_total", Help: "Logout calls."},
	{ID: compassAuth.MetricLogoutClearFailure, Name: "compass_auth_logout_clear_failure_total", Help: "Logouts that could not clear the persisted session."},
	{ID: compassAuth.MetricForgotPasswordRequest, Name: "compass_auth_password_reset_request_total", Help: "Accepted password reset requests."},
	{ID: compassAuth.MetricForgotPasswordUnknown, Name: "compass_auth_password_reset_unknown_total", Help: "Password reset requests for unknown accounts."},
	{ID: compassAuth.MetricSessionExpired, Name: "compass_auth_session_expired_total", Help: "Sessions dropped because the token expired."},
}

var HistogramDefs = []HistogramDef{
	{ID: compassAuth.MetricOperationLatency, Name: "compass_auth_operation_latency_seconds", Help: "Operation latency including simulated delay."},
}

// Audit trail counters are read from [compassAuth.AuditStats] rather than
// from a metrics snapshot.
const (
	AuditDroppedName    = "compass_auth_audit_dropped_total"
	AuditDroppedHelp    = "Audit events dropped on a full queue or after Close."
	AuditSinkPanicsName = "compass_auth_audit_sink_panics_total"
	AuditSinkPanicsHelp = "Audit events lost because the sink panicked."
)

// SessionStateName is a gauge holding the numeric [compassAuth.State] of the
// Manager. It is published only when the source can report its state.
const (
	SessionStateName = "compass_auth_session_state"
	SessionStateHelp = "Session state: 0 unknown, 1 anonymous, 2 authenticated."
)

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5}

// HistogramBoundSuffix labels every bucket, +Inf included, for exporters that
// flatten buckets into separate instruments.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_025",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
