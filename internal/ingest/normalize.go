package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"propwatch/internal/models"
)

// Normalizers map provider records into partial Signals. They are permissive
// on purpose: missing fields fall back to zero values or defaults instead of
// rejecting the record. A record without a usable external id still comes
// back as a Signal; the upsert layer drops and counts it.

type ViolationKind string

const (
	ViolationKindDOB ViolationKind = "dob"
	ViolationKindECB ViolationKind = "ecb"
)

func NormalizePermit(propertyID int64, raw map[string]any) *models.Signal {
	externalID := firstString(raw, "job__", "job_filing_number")
	return &models.Signal{
		PropertyID: propertyID,
		SignalType: models.SignalTypePermit,
		Source:     models.SourceNYCOpenData,
		ExternalID: externalID,
		Title:      fmt.Sprintf("Permit: %s — %s", stringOr(raw, "job_type", "Work"), stringOr(raw, "work_type", "N/A")),
		Description: str(raw, "job_description"),
		EventDate:   parseDate(firstString(raw, "filing_date", "approval_date")),
		Status:      stringOr(raw, "job_status", "filed"),
		Severity:    models.SeverityLow,
		IsActive:    true,
		RawPayload:  asJSON(raw),
		NormalizedFields: asJSON(map[string]any{
			"jobType":        raw["job_type"],
			"workType":       raw["work_type"],
			"filingDate":     raw["filing_date"],
			"approvalDate":   raw["approval_date"],
			"expirationDate": raw["expiration_date"],
			"bin":            raw["bin__"],
			"bbl":            raw["bbl__"],
		}),
	}
}

func NormalizeViolation(propertyID int64, raw map[string]any, kind ViolationKind) *models.Signal {
	// Anything not explicitly resolved counts as open; an "active" category
	// always does.
	category := strings.ToLower(str(raw, "violation_category"))
	ecbStatus := strings.ToLower(str(raw, "ecb_violation_status"))
	isOpen := strings.Contains(category, "active") || ecbStatus != "resolve"

	externalKey := "isn_dob_bis_viol"
	if kind == ViolationKindECB {
		externalKey = "ecb_violation_number"
	}

	status := "resolved"
	var resolvedAt *time.Time
	if isOpen {
		status = "open"
	} else {
		now := time.Now().UTC()
		resolvedAt = &now
	}

	return &models.Signal{
		PropertyID:  propertyID,
		SignalType:  models.SignalTypeViolation,
		Source:      models.SourceNYCOpenData,
		ExternalID:  firstString(raw, externalKey),
		Title:       fmt.Sprintf("Violation (%s): %s", strings.ToUpper(string(kind)), firstStringOr(raw, "Unknown", "description", "violation_type")),
		Description: str(raw, "description"),
		EventDate:   parseDate(str(raw, "issue_date")),
		Status:      status,
		Severity:    resolveSeverity(raw),
		IsActive:    isOpen,
		ResolvedAt:  resolvedAt,
		RawPayload:  asJSON(raw),
		NormalizedFields: asJSON(map[string]any{
			"violationType":   firstValue(raw, "violation_type", "ecb_violation_status"),
			"issueDate":       raw["issue_date"],
			"dispositionDate": raw["disposition_date"],
			"bin":             raw["bin"],
			"bbl":             raw["bbl"],
		}),
	}
}

func Normalize311Complaint(propertyID int64, raw map[string]any) *models.Signal {
	status := strings.ToLower(str(raw, "status"))
	if status == "" {
		status = "open"
	}
	return &models.Signal{
		PropertyID:  propertyID,
		SignalType:  models.SignalTypeComplaint,
		Source:      models.SourceNYCOpenData,
		ExternalID:  firstString(raw, "unique_key"),
		Title:       fmt.Sprintf("311 Complaint: %s", stringOr(raw, "complaint_type", "Unknown")),
		Description: str(raw, "descriptor"),
		EventDate:   parseDate(str(raw, "created_date")),
		Status:      status,
		Severity:    models.SeverityLow,
		IsActive:    status == "open",
		RawPayload:  asJSON(raw),
		NormalizedFields: asJSON(map[string]any{
			"complaintType": raw["complaint_type"],
			"descriptor":    raw["descriptor"],
			"agency":        raw["agency"],
			"createdDate":   raw["created_date"],
			"closedDate":    raw["closed_date"],
			"bbl":           raw["bbl"],
		}),
	}
}

// resolveSeverity maps violation text onto the severity scale. Rules are
// checked in priority order and the first match wins.
func resolveSeverity(raw map[string]any) string {
	desc := strings.ToLower(firstStringOr(raw, "", "description", "violation_type"))
	switch {
	case strings.Contains(desc, "immediately dangerous") || strings.Contains(desc, "class 1"):
		return models.SeverityCritical
	case strings.Contains(desc, "hazardous") || strings.Contains(desc, "class 2"):
		return models.SeverityHigh
	case strings.Contains(desc, "class 3"):
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func str(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func stringOr(raw map[string]any, key, fallback string) string {
	if v := str(raw, key); v != "" {
		return v
	}
	return fallback
}

// firstString returns a pointer to the first non-empty string among keys,
// or nil when none is present.
func firstString(raw map[string]any, keys ...string) *string {
	for _, key := range keys {
		if v := str(raw, key); v != "" {
			return &v
		}
	}
	return nil
}

func firstStringOr(raw map[string]any, fallback string, keys ...string) string {
	if v := firstString(raw, keys...); v != nil {
		return *v
	}
	return fallback
}

func firstValue(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
}

// parseDate handles the date shapes Socrata emits (floating timestamps and
// plain dates). Unparseable input maps to nil, not an error.
func parseDate(v any) *time.Time {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case *string:
		if t == nil {
			return nil
		}
		s = *t
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return &parsed
		}
	}
	return nil
}

func asJSON(v any) datatypes.JSON {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(payload)
}
