package bureau

import "encoding/xml"

// PGFNInscricoes is the XML body of GET /divida-ativa
type PGFNInscricoes struct {
	XMLName    xml.Name        `xml:"inscricoes"`
	NI         string          `xml:"ni,attr"`
	Inscricoes []PGFNInscricao `xml:"inscricao"`
}

// PGFNInscricao is one registration in the federal debt roll
type PGFNInscricao struct {
	Numero           string            `xml:"numero"`
	Receita          string            `xml:"receita"`
	ValorPrincipal   string            `xml:"valorPrincipal"`
	ValorConsolidado string            `xml:"valorConsolidado"`
	DataVencimento   string            `xml:"dataVencimento"`
	DataInscricao    string            `xml:"dataInscricao"`
	DataAtualizacao  string            `xml:"dataAtualizacao"`
	Situacao         string            `xml:"situacao"`
	Parcelamento     *PGFNParcelamento `xml:"parcelamento,omitempty"`
}

// PGFNParcelamento is an available installment plan
type PGFNParcelamento struct {
	Parcelas           int    `xml:"parcelas"`
	ValorParcela       string `xml:"valorParcela"`
	ValorTotal         string `xml:"valorTotal"`
	PercentualDesconto string `xml:"percentualDesconto"`
}

// PGFN situation codes
const (
	PGFNSituacaoAtiva     = "ATIVA_EM_COBRANCA"
	PGFNSituacaoAjuizada  = "AJUIZADA"
	PGFNSituacaoParcelada = "PARCELADA"
	PGFNSituacaoSuspensa  = "SUSPENSA"
)

// PGFNCreditor is the creditor name used for every inscription
const PGFNCreditor = "Procuradoria-Geral da Fazenda Nacional"

// PGFNWebsite is where inscriptions can be settled
const PGFNWebsite = "https://www.regularize.pgfn.gov.br"
