package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

func TestQuote(t *testing.T) {
	pricer := NewTablePricer()
	ctx := context.Background()

	cases := []struct {
		visaType string
		priority string
		want     string
	}{
		{"tourist", "normal", "160"},
		{"tourist", "high", "200"},
		{"tourist", "urgent", "240"},
		{"business", "normal", "185"},
		{"business", "high", "231.25"},
		{"student", "urgent", "525"},
		{"transit", "normal", "60"},
	}
	for _, tc := range cases {
		amount, currency, err := pricer.Quote(ctx, tc.visaType, tc.priority)
		require.NoError(t, err, "%s/%s", tc.visaType, tc.priority)
		assert.True(t, amount.Equal(decimal.RequireFromString(tc.want)),
			"%s/%s: got %s want %s", tc.visaType, tc.priority, amount, tc.want)
		assert.Equal(t, "USD", currency)
	}
}

func TestQuoteUnknownPriorityFallsBackToNormal(t *testing.T) {
	pricer := NewTablePricer()
	amount, _, err := pricer.Quote(context.Background(), "tourist", "whenever")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(160)))
}

func TestQuoteUnknownVisaType(t *testing.T) {
	pricer := NewTablePricer()
	_, _, err := pricer.Quote(context.Background(), "diplomatic", "normal")
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))
}
