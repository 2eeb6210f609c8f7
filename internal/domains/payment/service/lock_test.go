package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockPayment_EvictsEntryOnRelease(t *testing.T) {
	s := &serviceImpl{applyMu: map[string]*paymentLock{}}

	unlock := s.lockPayment("payment-1")
	assert.Len(t, s.applyMu, 1)

	unlock()
	assert.Empty(t, s.applyMu)
}

func TestLockPayment_SerializesSameKey(t *testing.T) {
	s := &serviceImpl{applyMu: map[string]*paymentLock{}}

	const holders = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maximum int
	)

	for range holders {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := s.lockPayment("payment-1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maximum {
				maximum = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, maximum)
	assert.Empty(t, s.applyMu)
}

func TestLockPayment_IndependentKeysDoNotBlock(t *testing.T) {
	s := &serviceImpl{applyMu: map[string]*paymentLock{}}

	unlockA := s.lockPayment("payment-a")
	unlockB := s.lockPayment("payment-b")

	assert.Len(t, s.applyMu, 2)

	unlockA()
	assert.Len(t, s.applyMu, 1)

	unlockB()
	assert.Empty(t, s.applyMu)
}
