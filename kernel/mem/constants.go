package mem

// Layout constants for the sv39 paging scheme on 64-bit RISC-V. Plain
// numeric data, not machine code, so it stays in a portable file (unlike
// kernel/cpu's CSR primitives): every package built and tested on a
// development host needs PageSize and friends to resolve.
const (
	// PageSize is the size, in bytes, of a single physical/virtual page.
	PageSize = 4096

	// PageShift is log2(PageSize); VPN = VA >> PageShift.
	PageShift = 12

	// PageTableEntrySize is the size in bytes of one PTE; PageSize /
	// PageTableEntrySize entries fit in one mapper frame.
	PageTableEntrySize = 8

	// PTEsPerPage is the number of page-table entries held by one mapper
	// frame (512 for sv39).
	PTEsPerPage = PageSize / PageTableEntrySize

	// VPNBitsPerLevel is the number of VPN bits consumed by each of the
	// three sv39 page-table levels.
	VPNBitsPerLevel = 9

	// PageTableLevels is the number of levels in the sv39 walk.
	PageTableLevels = 3

	// MaxVA is the highest virtual address representable in sv39 (the
	// architecture defines a 39-bit VA space; bit 38 is taken as the top
	// of the single-TB user/kernel-shared layout this kernel uses).
	MaxVA = (1 << 39) - 1

	// TrampolineVA is the virtual address, identical in every address
	// space, at which the trampoline page is mapped.
	TrampolineVA = MaxVA - PageSize + 1

	// TrapContextBaseVA is the virtual address immediately below the
	// trampoline where per-task trap-context pages are packed downward,
	// one page per TID.
	TrapContextBaseVA = TrampolineVA - PageSize

	// GuardPageSize separates consecutive per-task stacks (user and
	// kernel) so a stack overflow faults instead of silently corrupting
	// the neighboring task's stack.
	GuardPageSize = PageSize

	// UserStackSize is the size of one task's user-mode stack.
	UserStackSize = 4096 * 2

	// KernelStackSize is the size of one task's kernel-mode stack.
	KernelStackSize = 4096 * 2

	// InitProcessPath is the path the kernel loads as the first process.
	InitProcessPath = "/initproc"

	// TicksPerSec is the board timer frequency used to convert between
	// timer ticks and microseconds.
	TicksPerSec = 100

	// ArgsLimit bounds the combined size of exec's path+args payload that
	// gets pushed onto the new user stack.
	ArgsLimit = 1024 * 16
)
