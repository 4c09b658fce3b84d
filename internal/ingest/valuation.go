package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"propwatch/internal/models"
)

// NormalizeAssessment maps one DOF assessment roll record into a valuation
// signal. External id is bbl+year so each fiscal year's assessment stays its
// own row.
func NormalizeAssessment(propertyID int64, raw map[string]any) *models.Signal {
	bbl := firstStringOr(raw, "", "bble", "bbl")
	year := str(raw, "year")

	var externalID *string
	if bbl != "" && year != "" {
		v := bbl + "-" + year
		externalID = &v
	}

	fullValue := parseAmount(raw, "fullval")
	assessedTotal := parseAmount(raw, "avtot")
	assessedLand := parseAmount(raw, "avland")

	title := "Valuation: assessment roll"
	if year != "" {
		title = fmt.Sprintf("Valuation: FY %s assessment", year)
	}

	return &models.Signal{
		PropertyID:  propertyID,
		SignalType:  models.SignalTypeValuation,
		Source:      models.SourceNYCOpenData,
		ExternalID:  externalID,
		Title:       title,
		Description: strings.TrimSpace("Assessed by NYC Department of Finance " + year),
		Status:      "assessed",
		Severity:    models.SeverityLow,
		IsActive:    true,
		RawPayload:  asJSON(raw),
		NormalizedFields: asJSON(map[string]any{
			"bbl":           bbl,
			"year":          year,
			"taxClass":      raw["taxclass"],
			"marketValue":   amountString(fullValue),
			"assessedTotal": amountString(assessedTotal),
			"assessedLand":  amountString(assessedLand),
		}),
	}
}

func parseAmount(raw map[string]any, key string) *decimal.Decimal {
	s := str(raw, key)
	if s == "" {
		return nil
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &amount
}

func amountString(amount *decimal.Decimal) any {
	if amount == nil {
		return nil
	}
	return amount.String()
}
