package task

import (
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/signal"
)

// Kill raises sig against the process (sys_kill's target-side effect).
// kerr.DuplicateSignal if sig is already pending and unhandled.
func (p *PCB) Kill(sig signal.Signal) *kerr.Error {
	return p.signal.TryKill(sig)
}

// KillPID looks up pid in reg and raises sig against it, mirroring
// sys_kill's "any process, not just a descendant" reach.
func KillPID(reg *Registry, pid uint64, sig signal.Signal) *kerr.Error {
	target, ok := reg.Get(pid)
	if !ok {
		return kerr.New(kerr.ProcessDoesNotExist, module, "no such pid")
	}
	return target.Kill(sig)
}
