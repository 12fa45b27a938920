package trap

import "testing"

func TestDispatchUserEnvCallAdvancesSepcAndWritesResult(t *testing.T) {
	ctx := &TrapContext{Sepc: 0x1000}
	ctx.X[17] = 64 // syscall id
	ctx.X[10] = 1
	ctx.X[11] = 2
	ctx.X[12] = 3

	var gotID, gotA0, gotA1, gotA2 uint64
	h := Hooks{
		Syscall: func(id, a0, a1, a2 uint64) uint64 {
			gotID, gotA0, gotA1, gotA2 = id, a0, a1, a2
			return 42
		},
	}
	Dispatch(CauseUserEnvCall, ctx, h)

	if ctx.Sepc != 0x1004 {
		t.Fatalf("expected sepc advanced by 4, got %#x", ctx.Sepc)
	}
	if ctx.A0() != 42 {
		t.Fatalf("expected a0 == 42, got %d", ctx.A0())
	}
	if gotID != 64 || gotA0 != 1 || gotA1 != 2 || gotA2 != 3 {
		t.Fatalf("unexpected syscall args: id=%d a0=%d a1=%d a2=%d", gotID, gotA0, gotA1, gotA2)
	}
}

func TestDispatchPageFaultRaisesSEGV(t *testing.T) {
	var got BadSignal
	raised := false
	h := Hooks{RaiseSignal: func(s BadSignal) { got, raised = s, true }}
	Dispatch(CauseStorePageFault, &TrapContext{}, h)
	if !raised || got != BadSignalSEGV {
		t.Fatalf("expected SEGV to be raised, got raised=%v sig=%v", raised, got)
	}
}

func TestDispatchTimerRearmsAndYields(t *testing.T) {
	rearmed, yielded := false, false
	h := Hooks{
		RearmTimer: func() { rearmed = true },
		Yield:      func() { yielded = true },
	}
	Dispatch(CauseSupervisorTimer, &TrapContext{}, h)
	if !rearmed || !yielded {
		t.Fatalf("expected both rearm and yield, got rearmed=%v yielded=%v", rearmed, yielded)
	}
}
