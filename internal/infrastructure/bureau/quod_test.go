package bureau

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendencias/backend/internal/domain/pendency"
)

const quodResponse = `{
  "data": [
    {
      "contractId": "Q-100",
      "creditorName": "Banco Verde",
      "description": "Credito consignado",
      "originalAmountCents": 250075,
      "currentAmountCents": 301099,
      "dueDate": "2025-09-15",
      "lastUpdated": "2026-03-05T14:00:00Z",
      "status": "OVERDUE",
      "kind": "LOAN",
      "creditorContact": {"phone": "4004-0000"}
    },
    {
      "contractId": "Q-101",
      "creditorName": "Energia Paulista",
      "originalAmountCents": 15990,
      "dueDate": "2025-10-01",
      "status": "RENEGOTIATED",
      "kind": "UTILITY",
      "creditorContact": {}
    },
    {
      "contractId": "Q-102",
      "creditorName": "Banco Verde",
      "originalAmountCents": 100,
      "status": "CURRENT",
      "kind": "OTHER"
    }
  ],
  "meta": {"count": 3}
}`

func TestQuodAdapter_Fetch(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/negativacoes", r.URL.Path)
		assert.Equal(t, "11144477735", r.URL.Query().Get("document"))
		assert.Equal(t, "Bearer quod-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(quodResponse))
	})

	adapter, err := NewQuodAdapter(testConfig(server), testOptions(server)...)
	require.NoError(t, err)

	records, err := adapter.Fetch(context.Background(), testTaxID, "quod-key")
	require.NoError(t, err)
	// Q-102 has no due date
	require.Len(t, records, 2)

	loan := records[0]
	assert.Equal(t, "quod-Q-100", loan.ID)
	assert.Equal(t, "2500.75", loan.OriginalAmount.StringFixed(2))
	assert.Equal(t, "3010.99", loan.CurrentAmount.StringFixed(2))
	assert.Equal(t, pendency.StatusLate, loan.Status)
	assert.Equal(t, pendency.TypeLoan, loan.Type)
	assert.Equal(t, "Quod", loan.Source)
	require.NotNil(t, loan.Contact)
	assert.Equal(t, "4004-0000", loan.Contact.Phone)

	utility := records[1]
	assert.True(t, decimal.RequireFromString("159.90").Equal(utility.CurrentAmount), "current defaults to original")
	assert.Equal(t, pendency.StatusRenegotiated, utility.Status)
	assert.Equal(t, pendency.TypeService, utility.Type)
	assert.Nil(t, utility.Contact)
	assert.Equal(t, testFetchedAt, utility.LastUpdate)
}

func TestQuodAdapter_Fetch_AuthFailed(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	adapter, err := NewQuodAdapter(testConfig(server), testOptions(server)...)
	require.NoError(t, err)

	records, err := adapter.Fetch(context.Background(), testTaxID, "wrong")
	assert.ErrorIs(t, err, pendency.ErrProviderAuthFailed)
	assert.Nil(t, records)
}

func TestMapQuodCodes(t *testing.T) {
	assert.Equal(t, pendency.StatusLegal, mapQuodStatus(QuodStatusLegalAction))
	assert.Equal(t, pendency.StatusRegular, mapQuodStatus(QuodStatusCurrent))
	assert.Equal(t, pendency.StatusRegular, mapQuodStatus("UNKNOWN"))
	assert.Equal(t, pendency.TypeCreditCard, mapQuodKind(QuodKindCreditCard))
	assert.Equal(t, pendency.TypeTax, mapQuodKind(QuodKindTax))
	assert.Equal(t, pendency.TypeOther, mapQuodKind(QuodKindOther))
}
