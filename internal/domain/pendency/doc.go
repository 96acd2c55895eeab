// Package pendency contains the Pendency bounded context: outstanding debts
// registered against a Brazilian tax identifier (CPF or CNPJ) by credit
// bureaus and public registries.
//
// Key concepts:
//   - TaxID: checksum-validated CPF (11 digits) or CNPJ (14 digits)
//   - DebtRecord: a normalized pendency, recomputed on every search and never stored
//   - Provider: port implemented by one adapter per bureau
//   - SearchResult: the ordered records plus the outcome of every provider call
//   - HistoryStore: port for the per-client list of recent queries
//   - AuditRepository: port for the optional search audit trail
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package pendency
