package reconcile

import "github.com/hashicorp/go-multierror"

// multiErr accumulates every failure seen during an AllThenPick fan-out
// so the resulting rpcerr.FailedOnAllRPCs can report more than just
// the first one when a caller wants full diagnostics.
type multiErr struct {
	errs *multierror.Error
}

func newMultiErr() *multiErr {
	return &multiErr{errs: &multierror.Error{}}
}

func (m *multiErr) append(err error) {
	m.errs = multierror.Append(m.errs, err)
}

func (m *multiErr) out() *multierror.Error {
	return m.errs
}
