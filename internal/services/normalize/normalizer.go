// Package normalize canonicalizes raw deposit records from the transaction
// feed before they enter the matching pipeline: amounts become integer cents,
// dates become timestamps, disclosed fees are extracted.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"deposit-reconciliation-engine/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawTransaction is one row of the external transaction feed, untrusted.
type RawTransaction struct {
	ExternalID   string `json:"external_id"`
	Amount       string `json:"amount"`
	Fee          string `json:"fee,omitempty"`
	Date         string `json:"date"`
	Description  string `json:"description,omitempty"`
	CustomerHint string `json:"customer_hint,omitempty"`
}

// NormalizationError marks a feed row the engine cannot use. The row is
// skipped for the current run and retried on the next one.
type NormalizationError struct {
	ExternalID string
	Field      string
	Value      string
	Err        error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize transaction %s: bad %s %q: %v", e.ExternalID, e.Field, e.Value, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// Accepted date layouts, tried in order. RFC3339 covers trailing Z and
// explicit offsets.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize converts a raw feed row into a canonical BankTransaction.
func Normalize(raw RawTransaction) (*models.BankTransaction, error) {
	if strings.TrimSpace(raw.ExternalID) == "" {
		return nil, &NormalizationError{ExternalID: raw.ExternalID, Field: "external_id", Value: raw.ExternalID, Err: fmt.Errorf("missing")}
	}

	gross, err := ParseCents(raw.Amount)
	if err != nil {
		return nil, &NormalizationError{ExternalID: raw.ExternalID, Field: "amount", Value: raw.Amount, Err: err}
	}
	if gross <= 0 {
		return nil, &NormalizationError{ExternalID: raw.ExternalID, Field: "amount", Value: raw.Amount, Err: fmt.Errorf("deposit must be positive")}
	}

	var fee *int64
	if strings.TrimSpace(raw.Fee) != "" {
		f, err := ParseCents(raw.Fee)
		if err != nil {
			return nil, &NormalizationError{ExternalID: raw.ExternalID, Field: "fee", Value: raw.Fee, Err: err}
		}
		if f < 0 {
			return nil, &NormalizationError{ExternalID: raw.ExternalID, Field: "fee", Value: raw.Fee, Err: fmt.Errorf("fee must not be negative")}
		}
		fee = &f
	}

	date, err := ParseDate(raw.Date)
	if err != nil {
		return nil, &NormalizationError{ExternalID: raw.ExternalID, Field: "date", Value: raw.Date, Err: err}
	}

	return &models.BankTransaction{
		ID:               uuid.New(),
		ExternalID:       strings.TrimSpace(raw.ExternalID),
		TransactionDate:  date,
		Description:      strings.TrimSpace(raw.Description),
		GrossAmountCents: gross,
		FeeCents:         fee,
		CustomerHint:     strings.TrimSpace(raw.CustomerHint),
		CreatedAt:        time.Now(),
	}, nil
}

// ParseCents parses a currency string ("19700.00", "$1,234.56") into integer
// cents, rejecting sub-cent precision.
func ParseCents(s string) (int64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, err
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("sub-cent precision")
	}
	return cents.IntPart(), nil
}

// ParseDate parses a feed date string using the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("missing")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
