// Package govengine implements the Governance Engine inside the
// token-governance context.
//
// The module owns the share-based staking ledger, the poll lifecycle
// (create/vote/snapshot/end/execute/expire), and effect emission (token
// transfers, delegated calls) through outbox-backed workers. It keeps
// business rules in application/domain layers and isolates infrastructure
// concerns behind ports and adapters.
package govengine
