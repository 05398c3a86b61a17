package main

import "time"

// The view types below mirror the JSON shapes rendered by internal/httpapi's
// jobView/batchView/artifactView — mediactl decodes them independently
// rather than importing the server package, since the CLI is a separate
// binary talking over the wire, not an in-process caller.

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type queueInfo struct {
	Pending int `json:"pending"`
	Running int `json:"running"`
}

type artifactInfo struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Bytes int64  `json:"bytes,omitempty"`
	URL   string `json:"url,omitempty"`
}

type jobView struct {
	JobID      string                  `json:"jobId"`
	Type       string                  `json:"type"`
	State      string                  `json:"state"`
	Phase      string                  `json:"phase"`
	CreatedAt  time.Time               `json:"createdAt"`
	StartedAt  *time.Time              `json:"startedAt,omitempty"`
	FinishedAt *time.Time              `json:"finishedAt,omitempty"`
	ExpiresAt  *time.Time              `json:"expiresAt,omitempty"`
	Artifacts  map[string]artifactInfo `json:"artifacts"`
	Error      *errorInfo              `json:"error,omitempty"`
	Queue      queueInfo               `json:"queue"`
}

type jobsListView struct {
	Jobs []jobView `json:"jobs"`
}

type countsInfo struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Canceled  int `json:"canceled"`
	Running   int `json:"running"`
	Queued    int `json:"queued"`
}

type batchItemView struct {
	Idx        int                     `json:"idx"`
	State      string                  `json:"state"`
	Phase      string                  `json:"phase"`
	StartedAt  *time.Time              `json:"startedAt,omitempty"`
	FinishedAt *time.Time              `json:"finishedAt,omitempty"`
	Artifacts  map[string]artifactInfo `json:"artifacts"`
	Error      *errorInfo              `json:"error,omitempty"`
}

type batchView struct {
	BatchID    string          `json:"batchId"`
	State      string          `json:"state"`
	Phase      string          `json:"phase"`
	Counts     countsInfo      `json:"counts"`
	CreatedAt  time.Time       `json:"createdAt"`
	StartedAt  *time.Time      `json:"startedAt,omitempty"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
	ExpiresAt  *time.Time      `json:"expiresAt,omitempty"`
	Items      []batchItemView `json:"items"`
	Error      *errorInfo      `json:"error,omitempty"`
	Queue      queueInfo       `json:"queue"`
}

type batchesListView struct {
	Batches []batchView `json:"batches"`
}
