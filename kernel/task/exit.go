package task

// Exit marks t zombie with exitCode, releasing its kernel stack (spec.md
// §4.6's exit()). If t is the process's last live task, the whole
// process becomes a zombie too and its children are reparented onto
// initProc (pass nil only for the init process's own exit). The PCB
// itself stays in the registry until a parent's wait_pid reaps it.
// kerr is never returned: a failure to release a kernel stack here would
// leave the kernel unable to make progress at all, so it panics the same
// way kernel/id.Tracker.Release does on an unreachable error.
func (t *TCB) Exit(rt *Runtime, initProc *PCB, exitCode int32) {
	t.MarkZombie(exitCode)
	if err := t.releaseKernelStack(rt); err != nil {
		panic(err)
	}

	p := t.process
	p.mu.Lock()
	allZombie := true
	for _, other := range p.tasks {
		if !other.IsZombie() {
			allZombie = false
			break
		}
	}
	p.mu.Unlock()
	if !allZombie {
		return
	}

	p.mu.Lock()
	p.zombie = true
	p.exitCode = exitCode
	p.hasExitCode = true
	children := make([]*PCB, 0, len(p.children))
	for _, child := range p.children {
		children = append(children, child)
	}
	p.children = make(map[uint64]*PCB)
	space := p.space
	p.mu.Unlock()

	if initProc != nil {
		initProc.mu.Lock()
		for _, child := range children {
			child.mu.Lock()
			child.parent = initProc
			child.mu.Unlock()
			initProc.children[child.PID()] = child
		}
		initProc.mu.Unlock()
	}

	if err := space.Close(); err != nil {
		panic(err)
	}
}
