// Package governance owns the budget governor state machine.
//
// A Governor guards one bounded budget. The owner is fixed at initialization
// and manages an ordered operator roster; operators move the budget within
// its fixed bounds. Every mutation runs the same gate sequence (verify
// identity, check role, validate the amount, checked arithmetic, bound check)
// and commits all of its records in one atomic store write, so a rejected
// call never changes state.
package governance
