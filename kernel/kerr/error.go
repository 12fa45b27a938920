// Package kerr defines the closed set of kernel error kinds shared by every
// kernel package. Errors are constructed as package-level *Error sentinels
// (mirroring the teacher's kernel.Error) rather than via errors.New, since
// several of these are created before the allocator is up.
package kerr

// Kind identifies the category of a kernel error. The zero Kind is never
// used by a real error.
type Kind uint16

// The kinds below mirror spec.md §7 one-for-one; names are unabbreviated so
// that Kind.String() reads the same as the specification prose.
const (
	_ Kind = iota

	// Syscall
	InvalidSyscallID
	InvalidFileDescriptor
	InvalidOpenFlags
	OversizeArgs

	// Resource exhaustion
	FrameExhausted
	IDExhausted
	MutexExhausted
	SemaphoreExhausted
	CondvarExhausted
	FileDescriptorExhausted

	// Resource misuse
	FrameNotDeallocable
	IDNotDeallocable
	DoubleLockMutex
	DoubleUnlockMutex
	MutexDoesNotExist
	SemaphoreDoesNotExist
	CondvarDoesNotExist
	FileDescriptorDoesNotExist

	// Memory mapping
	VPNOutOfArea
	VPNAlreadyMapped
	VPNNotMapped
	PPNAlreadyMapped
	PPNNotMapped
	InvalidPageTablePerm
	AllocFullPageMapper
	DeallocEmptyPageMapper
	AreaAllocFailed
	AreaDeallocFailed
	AreaNotExists

	// Task / process
	TaskNotFound
	InvalidHeadlessTask
	UnloadableTask
	ProcessHaveNotTask
	ProcessAlreadyExists
	ProcessDoesNotExist
	ForkWithNoRootTask
	ExecWithMultiTasks

	// Signal
	DuplicateSignal
	UnknownSignum

	// I/O boundary
	EOB
	ParseElf
	ParseString
)

var names = map[Kind]string{
	InvalidSyscallID:          "invalid syscall id",
	InvalidFileDescriptor:     "invalid file descriptor",
	InvalidOpenFlags:          "invalid open flags",
	OversizeArgs:              "oversize args",
	FrameExhausted:            "frame exhausted",
	IDExhausted:               "id exhausted",
	MutexExhausted:            "mutex exhausted",
	SemaphoreExhausted:        "semaphore exhausted",
	CondvarExhausted:          "condvar exhausted",
	FileDescriptorExhausted:   "file descriptor exhausted",
	FrameNotDeallocable:       "frame not deallocable",
	IDNotDeallocable:          "id not deallocable",
	DoubleLockMutex:           "double lock mutex",
	DoubleUnlockMutex:         "double unlock mutex",
	MutexDoesNotExist:         "mutex does not exist",
	SemaphoreDoesNotExist:     "semaphore does not exist",
	CondvarDoesNotExist:       "condvar does not exist",
	FileDescriptorDoesNotExist: "file descriptor does not exist",
	VPNOutOfArea:              "vpn out of area",
	VPNAlreadyMapped:          "vpn already mapped",
	VPNNotMapped:              "vpn not mapped",
	PPNAlreadyMapped:          "ppn already mapped",
	PPNNotMapped:              "ppn not mapped",
	InvalidPageTablePerm:      "invalid page table permissions",
	AllocFullPageMapper:       "alloc on full page mapper",
	DeallocEmptyPageMapper:    "dealloc on empty page mapper",
	AreaAllocFailed:           "area alloc failed",
	AreaDeallocFailed:         "area dealloc failed",
	AreaNotExists:             "area not exists",
	TaskNotFound:              "task not found",
	InvalidHeadlessTask:       "invalid headless task",
	UnloadableTask:            "unloadable task",
	ProcessHaveNotTask:        "process have not task",
	ProcessAlreadyExists:      "process already exists",
	ProcessDoesNotExist:       "process does not exist",
	ForkWithNoRootTask:        "fork with no root task",
	ExecWithMultiTasks:        "exec with multi tasks",
	DuplicateSignal:           "duplicate signal",
	UnknownSignum:             "unknown signum",
	EOB:                       "end of buffer",
	ParseElf:                  "parse elf",
	ParseString:               "parse string",
}

// String implements fmt.Stringer without importing fmt.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown kernel error"
}

// Error describes a kernel error. All kernel errors are defined as
// package-level variables holding a pointer to this structure, the same
// discipline the teacher's kernel.Error uses, so that constructing one never
// depends on the allocator being initialized.
type Error struct {
	// Kind is the closed error category from spec.md §7.
	Kind Kind

	// Module names the package where the error originates.
	Module string

	// Message is a short human-readable detail.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Module + ": " + e.Message
	}
	return e.Module + ": " + e.Kind.String()
}

// Is lets errors.Is match two *Error values by Kind, so callers can write
// errors.Is(err, kerr.ErrFrameExhausted) against a dynamically built error
// that carries extra Message context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error. Kept as a tiny helper so call sites read like
// kerr.New(kerr.FrameExhausted, "pmm", "no free frames") instead of a
// struct literal.
func New(kind Kind, module, message string) *Error {
	return &Error{Kind: kind, Module: module, Message: message}
}
