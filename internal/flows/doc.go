// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunRefresh, RunFederated, etc.) accepts a typed
// dependency struct and returns results without side effects beyond those
// dependencies. Expected outcomes come back as the host errors carried in
// [Errors]; anything else is an infrastructure fault the Engine classifies.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential store, JWT manager,
// limiters, revocation ledger and notifier. They do NOT own any of these
// resources. Ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
