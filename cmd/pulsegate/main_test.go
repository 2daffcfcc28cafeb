package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScoreCmdFlags(t *testing.T) {
	cmd := newScoreCmd()
	f := cmd.Flags()

	domain, _ := f.GetString("domain")
	if domain != "payment_risk" {
		t.Errorf("default domain = %q, want payment_risk", domain)
	}
	outputFmt, _ := f.GetString("output")
	if outputFmt != "text" {
		t.Errorf("default output = %q, want text", outputFmt)
	}

	for _, flag := range []string{"input", "domain", "output"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestHealthCmdFlags(t *testing.T) {
	cmd := newHealthCmd()
	f := cmd.Flags()

	for _, flag := range []string{"input", "payment-band", "technical-band", "previous", "output"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
}

func TestLoadSignals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals.yaml")
	data := `
account_id: acct-1
payment:
  days_overdue: 45
  consecutive_late: 2
relationship:
  annual_value: 30000
  tenure_months: 24
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	sf, err := loadSignals(path)
	if err != nil {
		t.Fatalf("loadSignals: %v", err)
	}
	if sf.AccountID != "acct-1" {
		t.Errorf("AccountID = %q, want acct-1", sf.AccountID)
	}
	if sf.Payment == nil || sf.Payment.DaysOverdue != 45 {
		t.Errorf("Payment = %+v, want days_overdue 45", sf.Payment)
	}
	if sf.Technical != nil {
		t.Error("Technical should be nil when absent from the file")
	}
}

func TestLoadSignalsRequiresAccountID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals.yaml")
	if err := os.WriteFile(path, []byte("payment: {days_overdue: 1}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadSignals(path); err == nil {
		t.Error("expected error for missing account_id")
	}
}
