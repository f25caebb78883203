// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import "sync"

// Reporter is used to accumulate and report errors while processing a line.
// Processing stages can decide to report an error but continue rather than
// fail outright. The final set can then be shown to the user.
type Reporter interface {
	// Report adds the given record to the set. If this method returns a
	// non-nil value then the given exception is considered fatal.
	Report(Exception) Exception
	// Reported returns the set of accumulated exceptions.
	Reported() []Exception
}

// NewReporter returns a Reporter for use by a single goroutine. Codes listed
// in nonFatal are added to the default set of non-fatal codes.
func NewReporter(nonFatal []string) Reporter {
	nf := make(map[string]bool, len(defaultNonFatal)+len(nonFatal))
	for k := range defaultNonFatal {
		nf[k] = true
	}
	for _, k := range nonFatal {
		nf[k] = true
	}
	return &reporter{
		nonFatal: nf,
	}
}

// NewConcurrentReporter returns a concurrent-safe implementation of Reporter.
func NewConcurrentReporter(nonFatal []string) Reporter {
	return &reporterLock{
		Reporter: NewReporter(nonFatal),
		lock:     &sync.Mutex{},
	}
}

type reporter struct {
	reported []Exception
	nonFatal map[string]bool
}

func (r *reporter) Report(e Exception) Exception {
	r.reported = append(r.reported, e)
	if r.nonFatal[e.Code()] {
		return nil
	}
	return e
}

func (r *reporter) Reported() []Exception {
	return r.reported
}

type reporterLock struct {
	Reporter
	lock sync.Locker
}

func (r *reporterLock) Report(e Exception) Exception {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.Reporter.Report(e)
}

func (r *reporterLock) Reported() []Exception {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]Exception, len(r.Reporter.Reported()))
	copy(out, r.Reporter.Reported())
	return out
}
