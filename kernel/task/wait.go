package task

// Wait result sentinels (spec.md §4.6's wait_pid/wait_tid): -1 means no
// matching child exists at all, -2 means a match exists but hasn't
// exited yet.
const (
	WaitNoSuchChild = -1
	WaitStillAlive  = -2
)

// WaitPid reaps a zombie child process. pid == -1 matches any child.
// Returns (reaped PID, exit code) on success, or one of the sentinels
// above with exitCode unset.
func (p *PCB) WaitPid(reg *Registry, pid int64) (result int64, exitCode int32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.children) == 0 {
		return WaitNoSuchChild, 0
	}

	anyMatch := false
	for childPID, child := range p.children {
		matches := pid == -1 || int64(childPID) == pid
		if !matches {
			continue
		}
		anyMatch = true
		if child.IsZombie() {
			code, _ := child.ExitCode()
			delete(p.children, childPID)
			if reg != nil {
				reg.Unregister(childPID)
			}
			return int64(childPID), code
		}
	}
	if pid == -1 || anyMatch {
		return WaitStillAlive, 0
	}
	return WaitNoSuchChild, 0
}

// WaitTid reaps a zombie sibling task within the same process. tid == -1
// matches any task.
func (p *PCB) WaitTid(tid int64) (result int64, exitCode int32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	anyMatch := false
	for childTID, child := range p.tasks {
		matches := tid == -1 || int64(childTID) == tid
		if !matches {
			continue
		}
		anyMatch = true
		if child.IsZombie() {
			code, _ := child.ExitCode()
			delete(p.tasks, childTID)
			return int64(childTID), code
		}
	}
	if tid == -1 && len(p.tasks) != 0 {
		return WaitStillAlive, 0
	}
	if anyMatch {
		return WaitStillAlive, 0
	}
	return WaitNoSuchChild, 0
}
