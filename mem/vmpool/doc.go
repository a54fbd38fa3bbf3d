// Package vmpool hands out page-granular regions of a linear address range
// and resolves the fault handler's legitimacy checks for it.
//
// A pool keeps its bookkeeping inside the range it manages: the first page
// holds the region records, so creating a pool demand-pages that one page
// and nothing else. Allocation reserves addresses only; backing frames
// arrive later, one fault at a time, as the workload touches them.
package vmpool
