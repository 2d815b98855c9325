package reconcile

import "errors"

// ErrAmountMismatch is returned by ManualLink when the difference between
// the cycle total and the bill amount exceeds the overall tolerance and the
// caller did not force the link.
var ErrAmountMismatch = errors.New("amount difference exceeds tolerance")
