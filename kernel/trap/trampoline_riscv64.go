package trap

// trampolineSaveEntry and trampolineRestoreEntry are the two labels the
// trampoline page exposes (spec.md §4.7): stvec points at the save entry
// while a task runs in user mode, and trap_return jumps to the restore
// entry's trampoline-mapped address to get back into user mode. Neither
// is callable from Go directly; cmd/kernel copies the compiled trampoline
// page into a fixed physical frame at boot and references these symbols
// only to compute that frame's contents, never to call them as Go
// functions on the host.
func trampolineSaveEntry()

func trampolineRestoreEntry()
