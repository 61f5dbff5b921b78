// Package domain holds the pure state of the budget governor: identities,
// the operator roster and the bounded budget.
//
// Nothing here touches storage or verifies callers. Every transition takes a
// value and returns either the next value or a coded error, so the governance
// layer can compose gates and commit only when all of them pass.
package domain
