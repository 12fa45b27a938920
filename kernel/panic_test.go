package kernel

import (
	"strings"
	"testing"

	"rvkernel/kernel/kerr"
	"rvkernel/kernel/kfmt"
)

func TestPanic(t *testing.T) {
	halted := false
	haltFn = func() { halted = true }
	defer func() { haltFn = nil }()

	var buf strings.Builder
	kfmt.SetOutputSink(&buf)
	defer kfmt.SetOutputSink(nil)

	Panic(kerr.New(kerr.FrameExhausted, "pmm", "no free frames"))

	if !halted {
		t.Fatal("expected Panic to halt the cpu")
	}
	if !strings.Contains(buf.String(), "pmm") || !strings.Contains(buf.String(), "no free frames") {
		t.Fatalf("expected panic output to mention the error; got %q", buf.String())
	}
}

func TestPanicWithString(t *testing.T) {
	halted := false
	haltFn = func() { halted = true }
	defer func() { haltFn = nil }()

	var buf strings.Builder
	kfmt.SetOutputSink(&buf)
	defer kfmt.SetOutputSink(nil)

	Panic("unreachable")

	if !halted {
		t.Fatal("expected Panic to halt the cpu")
	}
	if !strings.Contains(buf.String(), "unreachable") {
		t.Fatalf("expected panic output to mention the message; got %q", buf.String())
	}
}
