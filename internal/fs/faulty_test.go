package fs

import (
	"errors"
	"os"
	"testing"
)

func TestFaulty_FailsOnlyMatchingOperationAndPath(t *testing.T) {
	t.Parallel()

	mem := NewMem()
	_ = mem.WriteFileAtomic("tasks.json", []byte("[]"), 0o644)

	faulty := NewFaulty(mem)
	faulty.Fail(OpWrite, "./tasks.json", os.ErrPermission)

	err := faulty.WriteFileAtomic("tasks.json", []byte("[1]"), 0o644)
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("err=%v, want ErrPermission", err)
	}

	if !IsInjected(err) {
		t.Fatalf("IsInjected(%v)=false, want true", err)
	}

	// Reads still pass through.
	data, err := faulty.ReadFile("tasks.json")
	if err != nil || string(data) != "[]" {
		t.Fatalf("ReadFile=%q,%v want \"[]\",nil", data, err)
	}

	faulty.Heal()

	if err := faulty.WriteFileAtomic("tasks.json", []byte("[1]"), 0o644); err != nil {
		t.Fatalf("after Heal err=%v, want nil", err)
	}
}

func TestIsInjected_RealErrorsAreNotInjected(t *testing.T) {
	t.Parallel()

	_, err := NewMem().ReadFile("missing")
	if IsInjected(err) {
		t.Fatalf("IsInjected(%v)=true, want false", err)
	}

	if IsInjected(nil) {
		t.Fatal("IsInjected(nil)=true, want false")
	}
}
