package storage

import "errors"

// Errors surfaced by the linking operations. Races lost at write time show
// up as ErrBillAlreadyExpanded or ErrCycleAlreadyLinked, indistinguishable
// from "someone already resolved this".
var (
	ErrBillNotFound         = errors.New("bill payment not found")
	ErrPendingCycleNotFound = errors.New("billing cycle has no unlinked transactions")
	ErrCycleAlreadyLinked   = errors.New("billing cycle is already linked to another bill")
	ErrBillAlreadyExpanded  = errors.New("bill payment is already expanded")
	ErrBillNotExpanded      = errors.New("bill payment is not expanded")
)
