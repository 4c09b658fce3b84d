package ingest

import (
	"testing"

	"propwatch/internal/models"
)

func TestResolveSeverityPriority(t *testing.T) {
	cases := []struct {
		name string
		desc string
		want string
	}{
		{"immediately dangerous", "Immediately Dangerous facade condition", models.SeverityCritical},
		{"class 1", "CLASS 1 violation issued", models.SeverityCritical},
		{"hazardous", "Hazardous gas leak", models.SeverityHigh},
		{"class 2", "class 2 boiler defect", models.SeverityHigh},
		{"class 3", "Class 3 paperwork issue", models.SeverityMedium},
		{"none", "routine inspection note", models.SeverityLow},
		{"empty", "", models.SeverityLow},
		// Priority: "hazardous" outranks "class 3" when both appear.
		{"hazardous beats class 3", "hazardous condition, class 3 filing", models.SeverityHigh},
		{"immediately dangerous beats hazardous", "immediately dangerous and hazardous", models.SeverityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveSeverity(map[string]any{"description": tc.desc})
			if got != tc.want {
				t.Fatalf("resolveSeverity(%q)=%q want %q", tc.desc, got, tc.want)
			}
		})
	}
}

func TestResolveSeverityFallsBackToViolationType(t *testing.T) {
	raw := map[string]any{"violation_type": "Class 2 Hazardous"}
	if got := resolveSeverity(raw); got != models.SeverityHigh {
		t.Fatalf("got %q want high", got)
	}
}

func TestNormalizePermit(t *testing.T) {
	raw := map[string]any{
		"job__":           "140915936",
		"job_type":        "A2",
		"work_type":       "PL",
		"job_status":      "R",
		"job_description": "Plumbing work",
		"filing_date":     "2024-01-15T00:00:00.000",
	}
	sig := NormalizePermit(42, raw)

	if sig.PropertyID != 42 {
		t.Fatalf("propertyID=%d", sig.PropertyID)
	}
	if sig.SignalType != models.SignalTypePermit {
		t.Fatalf("signalType=%q", sig.SignalType)
	}
	if sig.Source != models.SourceNYCOpenData {
		t.Fatalf("source=%q", sig.Source)
	}
	if sig.ExternalID == nil || *sig.ExternalID != "140915936" {
		t.Fatalf("externalID=%v", sig.ExternalID)
	}
	if sig.Severity != models.SeverityLow {
		t.Fatalf("severity=%q", sig.Severity)
	}
	if !sig.IsActive {
		t.Fatalf("isActive=false")
	}
	if sig.Status != "R" {
		t.Fatalf("status=%q", sig.Status)
	}
	if sig.Title != "Permit: A2 — PL" {
		t.Fatalf("title=%q", sig.Title)
	}
	if sig.EventDate == nil || sig.EventDate.Year() != 2024 {
		t.Fatalf("eventDate=%v", sig.EventDate)
	}
}

func TestNormalizePermitFallbacks(t *testing.T) {
	sig := NormalizePermit(7, map[string]any{"job_filing_number": "M00123-I1"})
	if sig.ExternalID == nil || *sig.ExternalID != "M00123-I1" {
		t.Fatalf("externalID=%v", sig.ExternalID)
	}
	if sig.Status != "filed" {
		t.Fatalf("status=%q", sig.Status)
	}
	if sig.Title != "Permit: Work — N/A" {
		t.Fatalf("title=%q", sig.Title)
	}

	empty := NormalizePermit(7, map[string]any{})
	if empty.ExternalID != nil {
		t.Fatalf("externalID=%v, want nil", empty.ExternalID)
	}
}

func TestNormalizeViolationECBScenario(t *testing.T) {
	raw := map[string]any{
		"ecb_violation_number": "EV-1",
		"description":          "Class 2 Hazardous condition",
		"issue_date":           "2024-01-01",
		"ecb_violation_status": "ACTIVE",
	}
	sig := NormalizeViolation(42, raw, ViolationKindECB)

	if sig.ExternalID == nil || *sig.ExternalID != "EV-1" {
		t.Fatalf("externalID=%v", sig.ExternalID)
	}
	if sig.Status != "open" {
		t.Fatalf("status=%q want open", sig.Status)
	}
	if sig.Severity != models.SeverityHigh {
		t.Fatalf("severity=%q want high", sig.Severity)
	}
	if !sig.IsActive {
		t.Fatalf("isActive=false")
	}
	if sig.ResolvedAt != nil {
		t.Fatalf("resolvedAt=%v, want nil while open", sig.ResolvedAt)
	}
	if sig.Title != "Violation (ECB): Class 2 Hazardous condition" {
		t.Fatalf("title=%q", sig.Title)
	}
}

func TestNormalizeViolationResolved(t *testing.T) {
	raw := map[string]any{
		"ecb_violation_number": "EV-2",
		"ecb_violation_status": "RESOLVE",
		"description":          "cured condition",
	}
	sig := NormalizeViolation(42, raw, ViolationKindECB)

	if sig.Status != "resolved" {
		t.Fatalf("status=%q", sig.Status)
	}
	if sig.IsActive {
		t.Fatalf("isActive=true for resolved violation")
	}
	if sig.ResolvedAt == nil {
		t.Fatalf("resolvedAt is nil for resolved violation")
	}
}

func TestNormalizeViolationDOBKey(t *testing.T) {
	raw := map[string]any{
		"isn_dob_bis_viol":     "2286921",
		"ecb_violation_number": "should-not-be-used",
		"violation_type":       "LL6291-LOCAL LAW",
	}
	sig := NormalizeViolation(1, raw, ViolationKindDOB)
	if sig.ExternalID == nil || *sig.ExternalID != "2286921" {
		t.Fatalf("externalID=%v", sig.ExternalID)
	}
	if sig.Title != "Violation (DOB): LL6291-LOCAL LAW" {
		t.Fatalf("title=%q", sig.Title)
	}
}

func TestNormalize311Complaint(t *testing.T) {
	raw := map[string]any{
		"unique_key":     "59312740",
		"complaint_type": "HEAT/HOT WATER",
		"descriptor":     "ENTIRE BUILDING",
		"status":         "Open",
		"created_date":   "2024-02-20T10:30:00.000",
	}
	sig := Normalize311Complaint(9, raw)

	if sig.ExternalID == nil || *sig.ExternalID != "59312740" {
		t.Fatalf("externalID=%v", sig.ExternalID)
	}
	if sig.Status != "open" {
		t.Fatalf("status=%q", sig.Status)
	}
	if !sig.IsActive {
		t.Fatalf("isActive=false for open complaint")
	}
	if sig.Severity != models.SeverityLow {
		t.Fatalf("severity=%q", sig.Severity)
	}

	closed := Normalize311Complaint(9, map[string]any{"unique_key": "1", "status": "Closed"})
	if closed.IsActive {
		t.Fatalf("isActive=true for closed complaint")
	}
	if closed.Status != "closed" {
		t.Fatalf("status=%q", closed.Status)
	}
}

func TestNormalizeAssessment(t *testing.T) {
	raw := map[string]any{
		"bble":     "1000477501",
		"year":     "2024",
		"fullval":  "1250000",
		"avtot":    "562500.50",
		"taxclass": "2",
	}
	sig := NormalizeAssessment(3, raw)

	if sig.SignalType != models.SignalTypeValuation {
		t.Fatalf("signalType=%q", sig.SignalType)
	}
	if sig.ExternalID == nil || *sig.ExternalID != "1000477501-2024" {
		t.Fatalf("externalID=%v", sig.ExternalID)
	}
	if sig.Status != "assessed" {
		t.Fatalf("status=%q", sig.Status)
	}
	if sig.Title != "Valuation: FY 2024 assessment" {
		t.Fatalf("title=%q", sig.Title)
	}

	noKey := NormalizeAssessment(3, map[string]any{"fullval": "100"})
	if noKey.ExternalID != nil {
		t.Fatalf("externalID=%v, want nil without bbl+year", noKey.ExternalID)
	}
}
