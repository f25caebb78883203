// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import "context"

// semaphore bounds the number of lines compiled at once in a batch.
type semaphore struct {
	slots chan struct{}
}

func newSemaphore(size int) *semaphore {
	return &semaphore{
		slots: make(chan struct{}, size),
	}
}

// Acquire waits for a free slot or for ctx to be done.
func (self *semaphore) Acquire(ctx context.Context) error {
	select {
	case self.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (self *semaphore) Release() {
	<-self.slots
}
