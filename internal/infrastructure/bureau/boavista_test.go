package bureau

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendencias/backend/internal/domain/pendency"
)

const boaVistaResponse = `{
  "result": {
    "total": 3,
    "items": [
      {
        "debtId": "bv-9",
        "company": {"name": "Cartões Estrela", "contact": {"email": "cobranca@estrela.example", "url": "https://estrela.example"}},
        "product": "Cartão de Crédito Platinum",
        "amount": {"original": 2300.5, "current": 2999.99},
        "dueDate": "2025-04-20T00:00:00-03:00",
        "lastUpdate": "2026-03-09T10:00:00-03:00",
        "state": "Em atraso há 320 dias",
        "agreement": {"installments": 6, "installmentAmount": 400, "total": 2400, "discount": 20}
      },
      {
        "debtId": "bv-10",
        "company": {"name": "Prefeitura Municipal"},
        "product": "IPTU 2024",
        "amount": {"original": "780.10"},
        "dueDate": "2024-11-30",
        "state": "Cobrança judicial"
      },
      {
        "debtId": "bv-11",
        "company": {"name": ""},
        "product": "Serviço",
        "amount": {"original": 10},
        "dueDate": "2024-11-30",
        "state": "Em dia"
      }
    ]
  }
}`

func TestBoaVistaAdapter_Fetch(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/debts/search", r.URL.Path)
		assert.Equal(t, "bv-key", r.Header.Get("X-Api-Key"))

		var req BoaVistaSearchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "11144477735", req.CPFCNPJ)

		_, _ = w.Write([]byte(boaVistaResponse))
	})

	adapter, err := NewBoaVistaAdapter(testConfig(server), testOptions(server)...)
	require.NoError(t, err)

	records, err := adapter.Fetch(context.Background(), testTaxID, "bv-key")
	require.NoError(t, err)
	// the record without creditor is dropped
	require.Len(t, records, 2)

	card := records[0]
	assert.Equal(t, "boavista-bv-9", card.ID)
	assert.Equal(t, pendency.StatusLate, card.Status)
	assert.Equal(t, pendency.TypeCreditCard, card.Type)
	assert.True(t, decimal.RequireFromString("2300.5").Equal(card.OriginalAmount))
	assert.True(t, decimal.RequireFromString("2999.99").Equal(card.CurrentAmount))
	assert.Equal(t, "Boa Vista", card.Source)
	require.NotNil(t, card.Contact)
	assert.Equal(t, "https://estrela.example", card.Contact.Website)
	require.NotNil(t, card.PaymentOptions)
	assert.Equal(t, 6, card.PaymentOptions.Installments)

	tax := records[1]
	assert.Equal(t, pendency.StatusLegal, tax.Status)
	assert.Equal(t, pendency.TypeTax, tax.Type)
	assert.True(t, decimal.RequireFromString("780.10").Equal(tax.CurrentAmount), "current falls back to original")
}

func TestBoaVistaAdapter_Fetch_RetriesReplayBody(t *testing.T) {
	var calls atomic.Int32
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		var req BoaVistaSearchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "11144477735", req.CPFCNPJ)
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"total":0,"items":[]}}`))
	})

	adapter, err := NewBoaVistaAdapter(testConfig(server), testOptions(server)...)
	require.NoError(t, err)

	records, err := adapter.Fetch(context.Background(), testTaxID, "k")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(2), calls.Load())
}
