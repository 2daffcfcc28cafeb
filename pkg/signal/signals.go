// Package signal defines the flat input records consumed by the Pulsegate
// scorers. Signal sets are immutable facts assembled by the caller for a
// single evaluation; they are never persisted and are recomputed each scan.
package signal

// PaymentSignals are the raw payment facts for one account.
// All fields are expected to be non-negative; the scorers do not validate
// upstream data.
type PaymentSignals struct {
	// DaysOverdue is the age in days of the oldest unpaid invoice.
	DaysOverdue int `json:"days_overdue" yaml:"days_overdue"`
	// ConsecutiveLate counts invoices paid late in a row, most recent first.
	ConsecutiveLate int `json:"consecutive_late" yaml:"consecutive_late"`
	// OutstandingAmount is the total unpaid balance in the account currency.
	OutstandingAmount float64 `json:"outstanding_amount" yaml:"outstanding_amount"`
	// DaysToRenewal is days until the contract renews; nil when the account
	// has no renewal date on file.
	DaysToRenewal *int `json:"days_to_renewal,omitempty" yaml:"days_to_renewal,omitempty"`
}

// TechnicalSignals are the raw platform health facts for one account.
type TechnicalSignals struct {
	UptimePct     float64 `json:"uptime_pct" yaml:"uptime_pct"`
	ErrorRatePct  float64 `json:"error_rate_pct" yaml:"error_rate_pct"`
	OpenIncidents int     `json:"open_incidents" yaml:"open_incidents"`
	FailedSyncs7d int     `json:"failed_syncs_7d" yaml:"failed_syncs_7d"`
}

// HealthSignals are the raw engagement facts feeding the aggregate
// account-health score.
type HealthSignals struct {
	LoginsPerWeek       float64 `json:"logins_per_week" yaml:"logins_per_week"`
	ActiveSeatsPct      float64 `json:"active_seats_pct" yaml:"active_seats_pct"`
	FeatureBreadthPct   float64 `json:"feature_breadth_pct" yaml:"feature_breadth_pct"`
	OpenTickets         int     `json:"open_tickets" yaml:"open_tickets"`
	NPS                 *int    `json:"nps,omitempty" yaml:"nps,omitempty"`
	PaymentStreakMonths int     `json:"payment_streak_months" yaml:"payment_streak_months"`
}

// RelationshipSignals describe the commercial relationship with an account.
// They feed the tone modifier for outreach drafts, never a score.
type RelationshipSignals struct {
	AnnualValue        float64 `json:"annual_value" yaml:"annual_value"`
	TenureMonths       int     `json:"tenure_months" yaml:"tenure_months"`
	OnTimeStreakMonths int     `json:"on_time_streak_months" yaml:"on_time_streak_months"`
}
