// Package harness runs end-to-end storage scenarios.
//
// A scenario is a YAML file naming a projection, a sequence of deliveries
// (optionally interleaved with projection changes) and assertions on the
// resulting tables:
//
//	name: mempool_then_block
//	description: an unconfirmed tx followed by its block
//	project: [in.e.a, out.s2]
//	deliveries:
//	  - type: ONMEMPOOL
//	    tx: {tx: {h: tx1}, in: [{e: {a: 1AddrX}}], out: [{s2: hello}]}
//	  - resync: [in.e.a, out.s2, out.e.v]
//	assertions:
//	  - type: row_count
//	    table: in
//	    count: 1
//
// Each run uses a fresh in-memory database, a step clock starting at Epoch
// and fixed batch ids, so table snapshots are stable enough for golden files.
package harness
