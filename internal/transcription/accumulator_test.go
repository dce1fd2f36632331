package transcription

import "testing"

func TestAccumulator_Collect(t *testing.T) {
	a := NewAccumulator()
	a.Append("Hello")
	a.Append("world")
	if got := a.Collect(); got != "Hello world" {
		t.Errorf("Collect() = %q, want %q", got, "Hello world")
	}
	if a.Count() != 2 {
		t.Errorf("Count() = %d, want 2", a.Count())
	}
}

func TestAccumulator_SkipsBlank(t *testing.T) {
	a := NewAccumulator()
	a.Append("")
	a.Append("   ")
	a.Append("word")
	if got := a.Collect(); got != "word" {
		t.Errorf("Collect() = %q, want %q", got, "word")
	}
}

func TestAccumulator_Reset(t *testing.T) {
	a := NewAccumulator()
	a.Append("stale")
	a.Reset()
	if got := a.Collect(); got != "" {
		t.Errorf("Collect() after reset = %q, want empty", got)
	}
}

func TestAccumulator_EmptyCollect(t *testing.T) {
	a := NewAccumulator()
	if got := a.Collect(); got != "" {
		t.Errorf("Collect() = %q, want empty", got)
	}
}
