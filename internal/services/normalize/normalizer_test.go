package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_BasicDeposit(t *testing.T) {
	tx, err := Normalize(RawTransaction{
		ExternalID: "txn-001",
		Amount:     "19700.00",
		Fee:        "300.00",
		Date:       "2025-06-10T14:30:00Z",
	})

	require.NoError(t, err)
	assert.Equal(t, "txn-001", tx.ExternalID)
	assert.Equal(t, int64(1970000), tx.GrossAmountCents)
	require.NotNil(t, tx.FeeCents)
	assert.Equal(t, int64(30000), *tx.FeeCents)
	assert.Equal(t, time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC), tx.TransactionDate)
}

func TestNormalize_AmountFormats(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int64
	}{
		{"plain", "8000.00", 800000},
		{"no decimals", "8000", 800000},
		{"dollar sign and commas", "$1,234.56", 123456},
		{"single decimal", "99.5", 9950},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := Normalize(RawTransaction{
				ExternalID: "txn-amt",
				Amount:     tt.amount,
				Date:       "2025-01-15",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tx.GrossAmountCents)
		})
	}
}

func TestNormalize_DateFormats(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{"trailing Z", "2025-03-01T09:00:00Z"},
		{"explicit offset", "2025-03-01T04:00:00-05:00"},
		{"date only", "2025-03-01"},
		{"space separated", "2025-03-01 09:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := Normalize(RawTransaction{
				ExternalID: "txn-date",
				Amount:     "100.00",
				Date:       tt.date,
			})
			require.NoError(t, err)
			assert.Equal(t, 2025, tx.TransactionDate.Year())
			assert.Equal(t, time.March, tx.TransactionDate.Month())
		})
	}
}

func TestNormalize_NoFee(t *testing.T) {
	tx, err := Normalize(RawTransaction{
		ExternalID: "txn-nofee",
		Amount:     "500.00",
		Date:       "2025-01-15",
	})

	require.NoError(t, err)
	assert.Nil(t, tx.FeeCents)
	assert.False(t, tx.FeeDisclosed())
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		raw   RawTransaction
		field string
	}{
		{"garbage amount", RawTransaction{ExternalID: "t", Amount: "abc", Date: "2025-01-15"}, "amount"},
		{"sub-cent amount", RawTransaction{ExternalID: "t", Amount: "10.005", Date: "2025-01-15"}, "amount"},
		{"zero amount", RawTransaction{ExternalID: "t", Amount: "0", Date: "2025-01-15"}, "amount"},
		{"negative amount", RawTransaction{ExternalID: "t", Amount: "-50.00", Date: "2025-01-15"}, "amount"},
		{"bad fee", RawTransaction{ExternalID: "t", Amount: "50.00", Fee: "x", Date: "2025-01-15"}, "fee"},
		{"bad date", RawTransaction{ExternalID: "t", Amount: "50.00", Date: "15/01/2025"}, "date"},
		{"missing date", RawTransaction{ExternalID: "t", Amount: "50.00"}, "date"},
		{"missing external id", RawTransaction{Amount: "50.00", Date: "2025-01-15"}, "external_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			require.Error(t, err)

			var normErr *NormalizationError
			require.True(t, errors.As(err, &normErr))
			assert.Equal(t, tt.field, normErr.Field)
		})
	}
}
