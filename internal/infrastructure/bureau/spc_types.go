package bureau

import "encoding/xml"

// SPCConsulta is the XML body of GET /ws/consulta
type SPCConsulta struct {
	XMLName   xml.Name      `xml:"consultaSPC"`
	Documento string        `xml:"documento"`
	Protocolo string        `xml:"protocolo,attr,omitempty"`
	Registros []SPCRegistro `xml:"registros>registro"`
}

// SPCRegistro is one debt registered at SPC
type SPCRegistro struct {
	Codigo          string       `xml:"codigo"`
	Credor          string       `xml:"credor"`
	TelefoneCredor  string       `xml:"telefoneCredor,omitempty"`
	EmailCredor     string       `xml:"emailCredor,omitempty"`
	Descricao       string       `xml:"descricao"`
	ValorOriginal   string       `xml:"valorOriginal"`
	ValorAtualizado string       `xml:"valorAtualizado"`
	DataVencimento  string       `xml:"dataVencimento"`
	DataAtualizacao string       `xml:"dataAtualizacao"`
	Situacao        string       `xml:"situacao"`
	Natureza        string       `xml:"natureza"`
	Proposta        *SPCProposta `xml:"proposta,omitempty"`
}

// SPCProposta is an agreement proposal
type SPCProposta struct {
	Parcelas     int    `xml:"parcelas"`
	ValorParcela string `xml:"valorParcela"`
	ValorTotal   string `xml:"valorTotal"`
	Desconto     string `xml:"percentualDesconto"`
}

// SPC situation codes
const (
	SPCSituacaoRegular      = "REGULAR"
	SPCSituacaoInadimplente = "INADIMPLENTE"
	SPCSituacaoAcordo       = "ACORDO"
	SPCSituacaoProtesto     = "PROTESTO"
	SPCSituacaoJudicial     = "ACAO_JUDICIAL"
)

// SPC nature codes
const (
	SPCNaturezaFinanciamento = "FINANCIAMENTO"
	SPCNaturezaCartao        = "CARTAO"
	SPCNaturezaServicos      = "SERVICOS"
	SPCNaturezaTributo       = "TRIBUTO"
	SPCNaturezaOutros        = "OUTROS"
)
