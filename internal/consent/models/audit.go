package models

// Audit event actions describe what operation occurred.
const (
	AuditActionConsentGranted     = "consent_granted"
	AuditActionConsentRevoked     = "consent_revoked"
	AuditActionConsentExpired     = "consent_expired"      // granted record observed past its expiry
	AuditActionConsentCheckPassed = "consent_check_passed" // gate allowed the request
	AuditActionConsentCheckFailed = "consent_check_failed" // gate denied: missing, revoked or expired
	AuditActionEnforcementBypass  = "consent_enforcement_bypassed"
)

// Audit event decisions record the outcome of the action.
const (
	AuditDecisionGranted = "granted"
	AuditDecisionRevoked = "revoked"
	AuditDecisionExpired = "expired"
	AuditDecisionDenied  = "denied"
	AuditDecisionAllowed = "allowed"
)

// Audit event reasons explain why the action was taken.
const (
	AuditReasonUserInitiated      = "user_initiated"
	AuditReasonTTLElapsed         = "ttl_elapsed"
	AuditReasonEnforcementDisable = "enforcement_disabled"
)
