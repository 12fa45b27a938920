package trap

import "testing"

func TestNewAppInitContextSetsEntryAndStack(t *testing.T) {
	ctx := NewAppInitContext(0x1000, 0x7000, 0x8000000000000001, 0x2000, 0x3000)
	if ctx.Sepc != 0x1000 {
		t.Fatalf("expected sepc 0x1000, got %#x", ctx.Sepc)
	}
	if ctx.SP() != 0x7000 {
		t.Fatalf("expected sp 0x7000, got %#x", ctx.SP())
	}
	if ctx.KernelSatp != 0x8000000000000001 {
		t.Fatalf("unexpected kernel satp %#x", ctx.KernelSatp)
	}
	for i, r := range ctx.X {
		if i == regSP {
			continue
		}
		if r != 0 {
			t.Fatalf("expected register x%d to be zero, got %#x", i, r)
		}
	}
}

func TestNewTaskContextPointsAtTrapReturn(t *testing.T) {
	tc := NewTaskContext(0x1234, 0x5678)
	if tc.RA != 0x1234 || tc.SP != 0x5678 {
		t.Fatalf("unexpected task context %+v", tc)
	}
}
