package syscall

// sysMutexCreate implements mutex_create(blocking) -> id.
func (s *Server) sysMutexCreate(blocking uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	return uint64(t.Process().AllocMutex(blocking != 0))
}

// sysMutexLock implements mutex_lock(id).
func (s *Server) sysMutexLock(id uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	m, err := t.Process().Mutex(int(id))
	if err != nil {
		return errU64()
	}
	if err := m.Lock(s.Processor, t.TID()); err != nil {
		return errU64()
	}
	return 0
}

// sysMutexUnlock implements mutex_unlock(id).
func (s *Server) sysMutexUnlock(id uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	m, err := t.Process().Mutex(int(id))
	if err != nil {
		return errU64()
	}
	if err := m.Unlock(s.Processor, t.TID()); err != nil {
		return errU64()
	}
	return 0
}

// sysSemaphoreCreate implements semaphore_create(blocking, count) -> id.
func (s *Server) sysSemaphoreCreate(blocking, count uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	return uint64(t.Process().AllocSemaphore(blocking != 0, int64(count)))
}

// sysSemaphoreUp implements semaphore_up(id).
func (s *Server) sysSemaphoreUp(id uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	sem, err := t.Process().Semaphore(int(id))
	if err != nil {
		return errU64()
	}
	if _, err := sem.Up(s.Processor, t.TID()); err != nil {
		return errU64()
	}
	return 0
}

// sysSemaphoreDown implements semaphore_down(id).
func (s *Server) sysSemaphoreDown(id uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	sem, err := t.Process().Semaphore(int(id))
	if err != nil {
		return errU64()
	}
	if _, err := sem.Down(s.Processor, t.TID()); err != nil {
		return errU64()
	}
	return 0
}

// sysCondvarCreate implements condvar_create() -> id.
func (s *Server) sysCondvarCreate() uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	return uint64(t.Process().AllocCondvar())
}

// sysCondvarSignal implements condvar_signal(id).
func (s *Server) sysCondvarSignal(id uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	cv, err := t.Process().Condvar(int(id))
	if err != nil {
		return errU64()
	}
	cv.Signal(s.Processor)
	return 0
}

// sysCondvarWait implements condvar_wait(id, mutex_id).
func (s *Server) sysCondvarWait(id, mutexID uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	cv, err := t.Process().Condvar(int(id))
	if err != nil {
		return errU64()
	}
	m, merr := t.Process().Mutex(int(mutexID))
	if merr != nil {
		return errU64()
	}
	if err := cv.Wait(s.Processor, t.TID(), m); err != nil {
		return errU64()
	}
	return 0
}

