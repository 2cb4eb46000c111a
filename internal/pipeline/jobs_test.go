package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewJob(t *testing.T) {
	langs := []string{"ja", "zh"}
	job := NewJob("doc-1", "blog", langs)
	langs[0] = "xx"

	if job.ID == "" {
		t.Fatal("expected a job id")
	}
	if other := NewJob("doc-1", "blog", nil); other.ID == job.ID {
		t.Error("expected unique job ids")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.Languages[0] != "ja" {
		t.Error("job must not alias the caller's language slice")
	}
	if job.Progress.LanguagesTotal != 2 {
		t.Errorf("expected 2 languages total, got %d", job.Progress.LanguagesTotal)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusFetching, "fetching document"},
		{StatusConverting, "converting to rich text"},
		{StatusExtracting, "extracting metadata"},
		{StatusPublishing, "publishing en"},
		{StatusTranslating, "translating"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("publish ja failed")
	job.AddError("publish zh failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "publish ja failed" {
		t.Errorf("expected first error %q, got %q", "publish ja failed", snap.Progress.Errors[0])
	}
}

func TestJob_AddStory(t *testing.T) {
	job := &Job{ID: "story-test", UpdatedAt: time.Now()}
	job.AddStory(StoryRef{Language: "en", FullSlug: "blog/x", ID: 1}, false)
	job.AddStory(StoryRef{Language: "ja", FullSlug: "ja/blog/x", ID: 2}, true)

	snap := job.Snapshot()
	if len(snap.Progress.Stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(snap.Progress.Stories))
	}
	if snap.Progress.LanguagesDone != 1 {
		t.Errorf("expected 1 language done, got %d", snap.Progress.LanguagesDone)
	}
}

func TestJob_SetMetadata(t *testing.T) {
	job := &Job{ID: "meta-test"}
	job.SetMetadata("Meeting Notes", "meeting-notes", true)

	snap := job.Snapshot()
	if snap.Title != "Meeting Notes" || snap.Slug != "meeting-notes" || !snap.AIMetadata {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	// Snapshot should always return non-nil slices.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Stories == nil || snap.Languages == nil {
		t.Error("expected non-nil slices in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJob_SnapshotIsACopy(t *testing.T) {
	job := &Job{ID: "copy-test"}
	job.AddError("first")
	snap := job.Snapshot()
	snap.Progress.Errors[0] = "changed"
	if job.Snapshot().Progress.Errors[0] != "first" {
		t.Error("snapshot must not alias job state")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
