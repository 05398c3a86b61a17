package httpapi

import (
	"fmt"
	"time"

	"transom/internal/store"
)

type queueView struct {
	Pending int `json:"pending"`
	Running int `json:"running"`
}

type artifactView struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Bytes int64  `json:"bytes,omitempty"`
	URL   string `json:"url,omitempty"`
}

func renderArtifacts(artifacts map[store.ArtifactKey]*store.Artifact, urlFor func(key store.ArtifactKey) string) map[string]artifactView {
	out := make(map[string]artifactView, len(artifacts))
	for key, art := range artifacts {
		if art == nil {
			continue
		}
		view := artifactView{Name: art.Name, Ready: art.Ready, Bytes: art.Bytes}
		if art.Ready {
			view.URL = urlFor(key)
		}
		out[string(key)] = view
	}
	return out
}

type jobView struct {
	JobID      string                   `json:"jobId"`
	Type       store.JobType            `json:"type"`
	State      store.State              `json:"state"`
	Phase      store.Phase              `json:"phase"`
	CreatedAt  time.Time                `json:"createdAt"`
	StartedAt  *time.Time               `json:"startedAt,omitempty"`
	FinishedAt *time.Time               `json:"finishedAt,omitempty"`
	ExpiresAt  *time.Time               `json:"expiresAt,omitempty"`
	Artifacts  map[string]artifactView  `json:"artifacts"`
	Error      *store.ErrorInfo         `json:"error,omitempty"`
	Queue      queueView                `json:"queue"`
}

func (s *Server) renderJob(job *store.Job) jobView {
	pending, running := s.deps.Queue.Snapshot()
	return jobView{
		JobID:      job.ID,
		Type:       job.Type,
		State:      job.State,
		Phase:      job.Phase,
		CreatedAt:  job.CreatedAt,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
		ExpiresAt:  job.ExpiresAt,
		Artifacts: renderArtifacts(job.Artifacts, func(key store.ArtifactKey) string {
			return fmt.Sprintf("/v2/jobs/%s/artifacts/%s", job.ID, store.ArtifactFilenames[key])
		}),
		Error: job.Error,
		Queue: queueView{Pending: pending, Running: running},
	}
}

type batchItemView struct {
	Idx        int                     `json:"idx"`
	State      store.State             `json:"state"`
	Phase      store.Phase             `json:"phase"`
	StartedAt  *time.Time              `json:"startedAt,omitempty"`
	FinishedAt *time.Time              `json:"finishedAt,omitempty"`
	Artifacts  map[string]artifactView `json:"artifacts"`
	Error      *store.ErrorInfo        `json:"error,omitempty"`
}

type batchView struct {
	BatchID    string          `json:"batchId"`
	State      store.State     `json:"state"`
	Phase      store.Phase     `json:"phase"`
	Counts     store.Counts    `json:"counts"`
	CreatedAt  time.Time       `json:"createdAt"`
	StartedAt  *time.Time      `json:"startedAt,omitempty"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
	ExpiresAt  *time.Time      `json:"expiresAt,omitempty"`
	Items      []batchItemView `json:"items"`
	Error      *store.ErrorInfo `json:"error,omitempty"`
	Queue      queueView       `json:"queue"`
}

func (s *Server) renderBatch(batch *store.Batch) batchView {
	pending, running := s.deps.Queue.Snapshot()
	items := make([]batchItemView, 0, len(batch.Items))
	for _, item := range batch.Items {
		items = append(items, batchItemView{
			Idx:        item.Idx,
			State:      item.State,
			Phase:      item.Phase,
			StartedAt:  item.StartedAt,
			FinishedAt: item.FinishedAt,
			Artifacts: renderArtifacts(item.Artifacts, func(key store.ArtifactKey) string {
				return fmt.Sprintf("/v2/batches/%s/items/%d/artifacts/%s", batch.ID, item.Idx, store.ArtifactFilenames[key])
			}),
			Error: item.Error,
		})
	}
	return batchView{
		BatchID:    batch.ID,
		State:      batch.State,
		Phase:      batch.Phase,
		Counts:     batch.CountItems(),
		CreatedAt:  batch.CreatedAt,
		StartedAt:  batch.StartedAt,
		FinishedAt: batch.FinishedAt,
		ExpiresAt:  batch.ExpiresAt,
		Items:      items,
		Error:      batch.Error,
		Queue:      queueView{Pending: pending, Running: running},
	}
}
