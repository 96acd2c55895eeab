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

const spcResponse = `<?xml version="1.0" encoding="UTF-8"?>
<consultaSPC protocolo="2026031000001">
  <documento>11144477735</documento>
  <registros>
    <registro>
      <codigo>771</codigo>
      <credor>Financeira Boa Praça</credor>
      <telefoneCredor>(11) 4000-1000</telefoneCredor>
      <descricao>Financiamento de veiculo</descricao>
      <valorOriginal>12.345,67</valorOriginal>
      <valorAtualizado>14.001,02</valorAtualizado>
      <dataVencimento>15/02/2025</dataVencimento>
      <dataAtualizacao>09/03/2026 18:45:00</dataAtualizacao>
      <situacao>PROTESTO</situacao>
      <natureza>FINANCIAMENTO</natureza>
      <proposta>
        <parcelas>24</parcelas>
        <valorParcela>550,00</valorParcela>
        <valorTotal>13.200,00</valorTotal>
        <percentualDesconto>5,7</percentualDesconto>
      </proposta>
    </registro>
    <registro>
      <codigo>772</codigo>
      <credor>Telefonia Norte</credor>
      <descricao>Fatura movel</descricao>
      <valorOriginal>R$ 99,90</valorOriginal>
      <dataVencimento>2025-13-01</dataVencimento>
      <situacao>INADIMPLENTE</situacao>
      <natureza>SERVICOS</natureza>
    </registro>
    <registro>
      <codigo>773</codigo>
      <credor>Telefonia Norte</credor>
      <descricao>Fatura fixa</descricao>
      <valorOriginal>120</valorOriginal>
      <dataVencimento>01/04/2025</dataVencimento>
      <situacao>Em acordo</situacao>
      <natureza>SERVICOS</natureza>
    </registro>
  </registros>
</consultaSPC>`

func TestSPCAdapter_Fetch(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/consulta", r.URL.Path)
		assert.Equal(t, "11144477735", r.URL.Query().Get("documento"))
		assert.Equal(t, "CPF", r.URL.Query().Get("tipo"))
		assert.Equal(t, "spc-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(spcResponse))
	})

	adapter, err := NewSPCAdapter(testConfig(server), testOptions(server)...)
	require.NoError(t, err)

	records, err := adapter.Fetch(context.Background(), testTaxID, "spc-key")
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, "spc-771", r.ID)
	assert.Equal(t, "Financeira Boa Praça", r.Creditor)
	assert.True(t, decimal.RequireFromString("12345.67").Equal(r.OriginalAmount))
	assert.True(t, decimal.RequireFromString("14001.02").Equal(r.CurrentAmount))
	assert.Equal(t, pendency.StatusLegal, r.Status)
	assert.Equal(t, pendency.TypeLoan, r.Type)
	assert.Equal(t, "SPC Brasil", r.Source)
	assert.Equal(t, "2025-02-15", r.DueDate.Format("2006-01-02"))
	assert.Equal(t, 18, r.LastUpdate.Hour())
	require.NotNil(t, r.PaymentOptions)
	assert.Equal(t, 24, r.PaymentOptions.Installments)
	assert.True(t, decimal.RequireFromString("13200").Equal(r.PaymentOptions.TotalAmount))
	assert.True(t, decimal.RequireFromString("5.7").Equal(r.PaymentOptions.DiscountPercent))

	// unknown situation text goes through keyword classification
	r = records[1]
	assert.Equal(t, "spc-773", r.ID)
	assert.Equal(t, pendency.StatusRenegotiated, r.Status)
	assert.Equal(t, pendency.TypeService, r.Type)
	assert.True(t, decimal.NewFromInt(120).Equal(r.CurrentAmount))
}

func TestSPCAdapter_Fetch_MalformedXML(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<consultaSPC><registros>"))
	})

	adapter, err := NewSPCAdapter(testConfig(server), testOptions(server)...)
	require.NoError(t, err)

	_, err = adapter.Fetch(context.Background(), testTaxID, "k")
	assert.ErrorIs(t, err, pendency.ErrProviderInvalidResponse)
}

func TestSPCAdapter_Fetch_CNPJ(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CNPJ", r.URL.Query().Get("tipo"))
		_, _ = w.Write([]byte(`<consultaSPC><documento>11222333000181</documento><registros></registros></consultaSPC>`))
	})

	adapter, err := NewSPCAdapter(testConfig(server), testOptions(server)...)
	require.NoError(t, err)

	records, err := adapter.Fetch(context.Background(), pendency.MustParseTaxID("11.222.333/0001-81"), "k")
	require.NoError(t, err)
	assert.Empty(t, records)
}
