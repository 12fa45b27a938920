package task

import (
	"rvkernel/kernel/kerr"
	ksync "rvkernel/kernel/sync"
)

// AllocMutex installs a new mutex (spin or blocking) at the lowest free
// slot in the process's mutex table, returning its id.
func (p *PCB) AllocMutex(blocking bool) int {
	var m ksync.Mutex
	if blocking {
		m = ksync.NewMutexBlocking()
	} else {
		m = ksync.NewMutexSpin()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.mutexTable {
		if existing == nil {
			p.mutexTable[i] = m
			return i
		}
	}
	p.mutexTable = append(p.mutexTable, m)
	return len(p.mutexTable) - 1
}

// Mutex looks up a mutex by id, reporting kerr.MutexDoesNotExist if absent.
func (p *PCB) Mutex(id int) (ksync.Mutex, *kerr.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.mutexTable) || p.mutexTable[id] == nil {
		return nil, kerr.New(kerr.MutexDoesNotExist, module, "mutex id not in use")
	}
	return p.mutexTable[id], nil
}

// DeallocMutex frees the slot at id.
func (p *PCB) DeallocMutex(id int) *kerr.Error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.mutexTable) || p.mutexTable[id] == nil {
		return kerr.New(kerr.MutexDoesNotExist, module, "mutex id not in use")
	}
	p.mutexTable[id] = nil
	return nil
}

// AllocSemaphore installs a new semaphore with the given initial count.
func (p *PCB) AllocSemaphore(blocking bool, count int64) int {
	var s ksync.Semaphore
	if blocking {
		s = ksync.NewSemaphoreBlocking(count)
	} else {
		s = ksync.NewSemaphoreSpin(count)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.semaphoreTable {
		if existing == nil {
			p.semaphoreTable[i] = s
			return i
		}
	}
	p.semaphoreTable = append(p.semaphoreTable, s)
	return len(p.semaphoreTable) - 1
}

// Semaphore looks up a semaphore by id.
func (p *PCB) Semaphore(id int) (ksync.Semaphore, *kerr.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.semaphoreTable) || p.semaphoreTable[id] == nil {
		return nil, kerr.New(kerr.SemaphoreDoesNotExist, module, "semaphore id not in use")
	}
	return p.semaphoreTable[id], nil
}

// DeallocSemaphore frees the slot at id.
func (p *PCB) DeallocSemaphore(id int) *kerr.Error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.semaphoreTable) || p.semaphoreTable[id] == nil {
		return kerr.New(kerr.SemaphoreDoesNotExist, module, "semaphore id not in use")
	}
	p.semaphoreTable[id] = nil
	return nil
}

// AllocCondvar installs a new condition variable.
func (p *PCB) AllocCondvar() int {
	c := ksync.NewCondvarBlocking()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.condvarTable {
		if existing == nil {
			p.condvarTable[i] = c
			return i
		}
	}
	p.condvarTable = append(p.condvarTable, c)
	return len(p.condvarTable) - 1
}

// Condvar looks up a condition variable by id.
func (p *PCB) Condvar(id int) (ksync.Condvar, *kerr.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.condvarTable) || p.condvarTable[id] == nil {
		return nil, kerr.New(kerr.CondvarDoesNotExist, module, "condvar id not in use")
	}
	return p.condvarTable[id], nil
}

// DeallocCondvar frees the slot at id.
func (p *PCB) DeallocCondvar(id int) *kerr.Error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.condvarTable) || p.condvarTable[id] == nil {
		return kerr.New(kerr.CondvarDoesNotExist, module, "condvar id not in use")
	}
	p.condvarTable[id] = nil
	return nil
}
