package fs

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMem_WriteRequiresParentDirectory(t *testing.T) {
	t.Parallel()

	mem := NewMem()

	err := mem.WriteFileAtomic("/data/tasks.json", []byte("[]"), 0o644)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v, want ErrNotExist", err)
	}

	if err := mem.MkdirAll("/data", 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if err := mem.WriteFileAtomic("/data/tasks.json", []byte("[]"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	got, err := mem.ReadFile("/data/tasks.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "[]" {
		t.Fatalf("content=%q, want=%q", got, "[]")
	}
}

func TestMem_ReadFileReturnsCopy(t *testing.T) {
	t.Parallel()

	mem := NewMem()
	_ = mem.WriteFileAtomic("notes.md", []byte("abc"), 0o644)

	got, _ := mem.ReadFile("notes.md")
	got[0] = 'x'

	again, _ := mem.ReadFile("notes.md")
	if string(again) != "abc" {
		t.Fatalf("stored content mutated through returned slice: %q", again)
	}
}

func TestMem_ReadDirListsDirectChildrenSorted(t *testing.T) {
	t.Parallel()

	mem := NewMem()
	_ = mem.MkdirAll("/ws/projects/archive", 0o755)
	_ = mem.WriteFileAtomic("/ws/projects/b.md", []byte("b"), 0o644)
	_ = mem.WriteFileAtomic("/ws/projects/a.md", []byte("a"), 0o644)
	_ = mem.WriteFileAtomic("/ws/projects/archive/old.md", []byte("old"), 0o644)

	entries, err := mem.ReadDir("/ws/projects")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	var names []string

	for _, e := range entries {
		names = append(names, e.Name())
	}

	if diff := cmp.Diff([]string{"a.md", "archive", "b.md"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	if !entries[1].IsDir() {
		t.Fatal("archive should be a directory")
	}

	if _, err := mem.ReadDir("/ws/missing"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadDir missing err=%v, want ErrNotExist", err)
	}
}

func TestMem_StatReportsSizeAndModTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	mem := NewMem()
	mem.SetClock(func() time.Time { return at })
	_ = mem.WriteFileAtomic("MEMORY.md", []byte("hello"), 0o644)

	info, err := mem.Stat("MEMORY.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if info.Size() != 5 || !info.ModTime().Equal(at) || info.IsDir() {
		t.Fatalf("info=%+v, want size=5 modTime=%v file", info, at)
	}

	later := at.Add(time.Hour)
	if err := mem.SetModTime("MEMORY.md", later); err != nil {
		t.Fatalf("SetModTime: %v", err)
	}

	info, _ = mem.Stat("MEMORY.md")
	if !info.ModTime().Equal(later) {
		t.Fatalf("modTime=%v, want=%v", info.ModTime(), later)
	}
}

func TestMem_LockIsExclusive(t *testing.T) {
	t.Parallel()

	mem := NewMem()

	first, _ := mem.Lock("tasks.json")

	acquired := make(chan struct{})

	go func() {
		second, _ := mem.Lock("tasks.json")
		close(acquired)
		_ = second.Close()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	_ = first.Close()
	_ = first.Close()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock not acquired after release")
	}
}
