package pipeline

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a publish job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusFetching    JobStatus = "fetching"
	StatusConverting  JobStatus = "converting"
	StatusExtracting  JobStatus = "extracting"
	StatusTranslating JobStatus = "translating"
	StatusPublishing  JobStatus = "publishing"
	StatusCompleted   JobStatus = "completed"
	StatusPartial     JobStatus = "partial"
	StatusFailed      JobStatus = "failed"
)

// Job tracks the publishing of one document and its translations.
type Job struct {
	mu sync.Mutex

	ID        string   `json:"job_id"`
	DocID     string   `json:"doc_id"`
	Folder    string   `json:"folder"`
	Languages []string `json:"languages"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Title  string    `json:"title"`
	Slug   string    `json:"slug"`
	// AIMetadata is false when the heuristic fallback produced the metadata.
	AIMetadata bool `json:"ai_metadata"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Progress tracks what has been written to the CMS.
type Progress struct {
	LanguagesTotal int        `json:"languages_total"`
	LanguagesDone  int        `json:"languages_done"`
	Stories        []StoryRef `json:"stories"`
	Errors         []string   `json:"errors"`
}

// StoryRef is one story written by a job.
type StoryRef struct {
	Language string `json:"language"`
	FullSlug string `json:"full_slug"`
	ID       int64  `json:"id"`
	Created  bool   `json:"created"`
}

// NewJob returns a queued job with a fresh id.
func NewJob(docID, folder string, languages []string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		DocID:     docID,
		Folder:    folder,
		Languages: slices.Clone(languages),
		Status:    StatusQueued,
		Phase:     "queued",
		Progress:  Progress{LanguagesTotal: len(languages)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, err)
	j.UpdatedAt = time.Now()
}

// SetMetadata records the title and slug the story is published under.
func (j *Job) SetMetadata(title, slug string, ai bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.Slug = slug
	j.AIMetadata = ai
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the document text.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// AddStory records a written story. Translated stories count toward
// LanguagesDone.
func (j *Job) AddStory(ref StoryRef, translated bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Stories = append(j.Progress.Stories, ref)
	if translated {
		j.Progress.LanguagesDone++
	}
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocID       string    `json:"doc_id"`
	Folder      string    `json:"folder"`
	Languages   []string  `json:"languages"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	AIMetadata  bool      `json:"ai_metadata"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := slices.Clone(j.Progress.Errors)
	if errs == nil {
		errs = []string{}
	}
	stories := slices.Clone(j.Progress.Stories)
	if stories == nil {
		stories = []StoryRef{}
	}
	langs := slices.Clone(j.Languages)
	if langs == nil {
		langs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		Folder:      j.Folder,
		Languages:   langs,
		Status:      j.Status,
		Phase:       j.Phase,
		Title:       j.Title,
		Slug:        j.Slug,
		AIMetadata:  j.AIMetadata,
		ContentHash: j.ContentHash,
		Progress: Progress{
			LanguagesTotal: j.Progress.LanguagesTotal,
			LanguagesDone:  j.Progress.LanguagesDone,
			Stories:        stories,
			Errors:         errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
