package store

import (
	"sync/atomic"
	"time"
)

// CurrentSchemaVersion is stamped on every Job/Batch record this build
// creates, so a future on-disk format change can detect and migrate older
// records found by the reaper's startup sweep.
const CurrentSchemaVersion = 1

// JobType selects which stage sequence a job runs.
type JobType string

const (
	JobTypeASR        JobType = "asr"
	JobTypeDemucs     JobType = "demucs"
	JobTypeASRDemucs  JobType = "asr-demucs"
)

// State is the coarse lifecycle state shared by jobs, batches, and batch items.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// Terminal reports whether s is a lifecycle end state.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCanceled:
		return true
	default:
		return false
	}
}

// Phase is fine-grained pipeline progress within a running job or batch.
type Phase string

const (
	PhaseQueued     Phase = "queued"
	PhaseValidate   Phase = "validate"
	PhaseASRConvert Phase = "asr_convert"
	PhaseASR        Phase = "asr"
	PhaseDemucs     Phase = "demucs"
	PhaseZipDemucs  Phase = "zip_demucs"
	PhaseZipResult  Phase = "zip_result"
	PhaseDone       Phase = "done"
	PhaseError      Phase = "error"
)

// Source identifies how an input was supplied.
type Source string

const (
	SourceUpload   Source = "upload"
	SourceAudioPath Source = "audioPath"
	SourceAudioURL Source = "audioUrl"
	SourceUnknown  Source = "unknown"
)

// ArtifactKey names a well-known output of the pipeline.
type ArtifactKey string

const (
	ArtifactSRT        ArtifactKey = "srt"
	ArtifactVocals     ArtifactKey = "vocals"
	ArtifactNoVocals   ArtifactKey = "no_vocals"
	ArtifactDemucsZip  ArtifactKey = "demucs_zip"
	ArtifactResultZip  ArtifactKey = "result_zip"
)

// ArtifactFilenames maps each artifact key to its stable filename within the
// owning directory.
var ArtifactFilenames = map[ArtifactKey]string{
	ArtifactSRT:       "output.srt",
	ArtifactVocals:    "vocals.mp3",
	ArtifactNoVocals:  "no_vocals.mp3",
	ArtifactDemucsZip: "demucs.zip",
	ArtifactResultZip: "result.zip",
}

// Artifact records a named output file and its readiness.
type Artifact struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Ready bool   `json:"ready"`
	Bytes int64  `json:"bytes,omitempty"`
}

// ErrorInfo is the {code, message, details?} shape recorded on a terminal
// job/batch/item that failed.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Job is a single-item pipeline run.
type Job struct {
	ID   string  `json:"id"`
	Type JobType `json:"type"`

	SchemaVersion int `json:"schemaVersion"`

	State State `json:"state"`
	Phase Phase `json:"phase"`

	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`

	OutDir string `json:"outDir"`

	Source               Source `json:"source"`
	AudioPath             string `json:"audioPath"`
	CleanupAudioOnFinish bool   `json:"cleanupAudioOnFinish"`

	VADMaxSingleSegmentMs int `json:"vadMaxSingleSegmentMs,omitempty"`
	VADMaxEndSilenceMs    int `json:"vadMaxEndSilenceMs,omitempty"`

	Artifacts map[ArtifactKey]*Artifact `json:"artifacts"`

	Error *ErrorInfo `json:"error,omitempty"`
}

// BatchOptions configures a batch run.
type BatchOptions struct {
	Policy                string `json:"policy"`
	Tasks                 Tasks  `json:"tasks"`
	VADMaxSingleSegmentMs int    `json:"vadMaxSingleSegmentMs,omitempty"`
	VADMaxEndSilenceMs    int    `json:"vadMaxEndSilenceMs,omitempty"`
}

// Tasks selects which stages a batch runs.
type Tasks struct {
	ASR    bool `json:"asr"`
	Demucs bool `json:"demucs"`
}

// InputDescriptor describes how a batch item's input was supplied.
type InputDescriptor struct {
	Kind Source `json:"kind"`
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`
}

// BatchItem is one item within a batch.
type BatchItem struct {
	Idx   int              `json:"idx"`
	Input InputDescriptor  `json:"input"`

	Source     Source `json:"source"`
	AudioPath  string `json:"audioPath"`
	OwnedInput bool   `json:"ownedInput"`

	State State `json:"state"`
	Phase Phase `json:"phase"`

	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	Artifacts map[ArtifactKey]*Artifact `json:"artifacts"`

	Error *ErrorInfo `json:"error,omitempty"`
}

// Batch is a multi-item, stage-first pipeline run.
type Batch struct {
	ID    string  `json:"id"`
	State State   `json:"state"`
	Phase Phase   `json:"phase"`

	SchemaVersion int `json:"schemaVersion"`

	Options BatchOptions `json:"options"`
	Items   []*BatchItem `json:"items"`

	// CancelRequested mirrors cancelFlag for persistence: it is synced from
	// cancelFlag immediately before every SaveBatch, and reloaded by
	// LoadBatch, but is not itself the synchronization point. Code that
	// needs the live value while the batch may still be running must go
	// through RequestCancel/IsCancelRequested, never this field directly —
	// the engine goroutine driving the batch and the HTTP handler accepting
	// a cancel request run concurrently and share no other lock.
	CancelRequested bool `json:"cancelRequested"`

	// cancelFlag is a pointer so copying a Batch by value (as
	// registry.BatchSnapshot/BatchesSnapshot do for read-only status
	// views) duplicates the pointer, not the atomic itself — every copy
	// still observes the one shared flag instead of freezing at copy time.
	cancelFlag *atomic.Bool `json:"-"`

	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`

	OutDir string `json:"outDir"`

	Error *ErrorInfo `json:"error,omitempty"`
}

// NewBatch constructs an empty Batch with its cancellation guard ready to
// use. Production code building a *Batch from scratch should start from
// this rather than a bare struct literal.
func NewBatch() *Batch {
	return &Batch{cancelFlag: &atomic.Bool{}}
}

// ensureCancelFlag lazily initializes cancelFlag for batches that were
// unmarshaled from JSON (encoding/json never touches unexported fields, so
// a batch loaded by LoadBatch arrives with a nil pointer here).
func (b *Batch) ensureCancelFlag() {
	if b.cancelFlag == nil {
		b.cancelFlag = &atomic.Bool{}
	}
}

// RequestCancel marks the batch for cooperative cancellation. Safe to call
// concurrently with IsCancelRequested from the goroutine driving the batch.
func (b *Batch) RequestCancel() {
	b.ensureCancelFlag()
	b.cancelFlag.Store(true)
}

// IsCancelRequested reports whether cancellation has been requested. Safe
// to call concurrently with RequestCancel.
func (b *Batch) IsCancelRequested() bool {
	b.ensureCancelFlag()
	return b.cancelFlag.Load()
}

// Counts summarizes item outcomes for a batch status response.
type Counts struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Canceled  int `json:"canceled"`
	Running   int `json:"running"`
	Queued    int `json:"queued"`
}

// CountItems tallies item states.
func (b *Batch) CountItems() Counts {
	var c Counts
	for _, item := range b.Items {
		c.Total++
		switch item.State {
		case StateSucceeded:
			c.Succeeded++
		case StateFailed:
			c.Failed++
		case StateCanceled:
			c.Canceled++
		case StateRunning:
			c.Running++
		case StateQueued:
			c.Queued++
		}
	}
	return c
}

// NormalizeJobType maps known aliases onto the canonical asr-demucs type and
// reports whether t (after normalization) is one of the three known types.
func NormalizeJobType(t string) (JobType, bool) {
	switch t {
	case "", "demucs-asr", "demucsasr", "asr+demucs", "asr-demucs":
		return JobTypeASRDemucs, true
	case "asr":
		return JobTypeASR, true
	case "demucs":
		return JobTypeDemucs, true
	default:
		return "", false
	}
}
