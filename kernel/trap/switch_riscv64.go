package trap

// Switch saves the calling task's callee-saved registers into curr and
// loads next's, the same asm-backed __switch primitive spec.md §4.7
// describes. It returns to the caller normally the next time this task is
// switched back to (i.e. a Switch call's return point is the resumption
// point of whichever task eventually calls Switch(_, curr)).
func Switch(curr, next *TaskContext)
