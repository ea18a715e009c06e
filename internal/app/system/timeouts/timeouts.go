// Package timeouts holds the context deadlines handlers put on store and
// engine calls, so every feature bounds its I/O the same way.
//
// Picking a tier:
//   - Ping: database connectivity probes on the health endpoint
//   - Short: single-document reads (community or wallet by id)
//   - Medium: list queries and single-aggregate writes
//   - Long: fund movements crossing wallets, the ledger, and the
//     community aggregate, including their retry budget
package timeouts

import "time"

const (
	Ping   = 2 * time.Second
	Short  = 5 * time.Second
	Medium = 10 * time.Second
	Long   = 30 * time.Second
)
