package syscall

// sysGetTimeOfDay implements gettimeofday() -> us.
func (s *Server) sysGetTimeOfDay() uint64 {
	return s.NowUs()
}

// sysSleep implements sleep(us) -> 0, parking the caller on the
// scheduler's timer heap rather than busy-waiting.
func (s *Server) sysSleep(us uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	s.Processor.SleepCurrent(t.TID(), s.NowUs(), us)
	return 0
}
