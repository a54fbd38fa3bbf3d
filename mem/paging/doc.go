// Package paging builds and services two-level page tables over a simulated
// machine.
//
// A Context binds the machine to its frame pools and acts as the page-fault
// handler. Address spaces identity-map a shared low region so that kernel
// structures keep their addresses across the paging switch, and map the
// directory into itself at the last slot: with the directory as its own page
// table, every directory and table entry of the running address space is
// reachable at a fixed linear address, so the fault handler can edit tables
// it has no identity mapping for.
//
// Faults on addresses no registered pool claims are fatal, as are protection
// faults: the demand pager only ever populates missing mappings.
package paging
