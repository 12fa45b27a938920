package kernel

import "rvkernel/kernel/cpu"

func init() {
	haltFn = cpu.Halt
}
