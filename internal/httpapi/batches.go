package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"transom/internal/apierr"
	"transom/internal/batchengine"
	"transom/internal/boundary"
	"transom/internal/store"
)

// itemSpec is one element of the "items" JSON array in a batch creation
// request: {"kind":"upload"|"audioUrl"|"audioPath","url":"...","path":"..."}.
// An "upload" item's bytes arrive as the multipart field named "item<idx>".
type itemSpec struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

func (s *Server) createBatch(c *gin.Context) {
	var specs []itemSpec
	if err := json.Unmarshal([]byte(c.PostForm("items")), &specs); err != nil || len(specs) == 0 {
		writeError(c, apierr.New(apierr.CodeBadRequest, "items must be a non-empty JSON array"))
		return
	}
	if len(specs) > 10 {
		writeError(c, apierr.New(apierr.CodeBadRequest, "batch items must number at most 10"))
		return
	}

	tasks := store.Tasks{
		ASR:    c.PostForm("asr") == "true" || c.PostForm("asr") == "1",
		Demucs: c.PostForm("demucs") == "true" || c.PostForm("demucs") == "1",
	}
	if !tasks.ASR && !tasks.Demucs {
		tasks = store.Tasks{ASR: true, Demucs: true}
	}

	vadMaxSingleSegmentMs, err := parseVADParam(c.PostForm("vadMaxSingleSegmentMs"))
	if err != nil {
		writeError(c, err)
		return
	}
	vadMaxEndSilenceMs, err := parseVADParam(c.PostForm("vadMaxEndSilenceMs"))
	if err != nil {
		writeError(c, err)
		return
	}

	id := uuid.NewString()
	outDir := filepath.Join(s.deps.Config.Paths.BatchesDir, id)
	if err := os.MkdirAll(store.InputsDir(outDir), 0o755); err != nil {
		writeError(c, apierr.Wrap(apierr.ErrInternal, "", "create-batch", "create batch directory", err))
		return
	}

	items := make([]*store.BatchItem, 0, len(specs))
	for idx, spec := range specs {
		itemDir := store.ItemDir(outDir, idx)
		if err := os.MkdirAll(itemDir, 0o755); err != nil {
			writeError(c, apierr.Wrap(apierr.ErrInternal, "", "create-batch", "create item directory", err))
			return
		}

		materialized, err := s.materializeBatchItem(c, spec, outDir, idx)
		if err != nil {
			writeError(c, err)
			return
		}

		items = append(items, &store.BatchItem{
			Idx:        idx,
			Input:      store.InputDescriptor{Kind: materialized.Source, URL: spec.URL, Path: spec.Path},
			Source:     materialized.Source,
			AudioPath:  materialized.Path,
			OwnedInput: materialized.Owned,
			State:      store.StateQueued,
			Phase:      store.PhaseQueued,
			Artifacts:  make(map[store.ArtifactKey]*store.Artifact),
		})
	}

	batch := store.NewBatch()
	batch.ID = id
	batch.SchemaVersion = store.CurrentSchemaVersion
	batch.State = store.StateQueued
	batch.Phase = store.PhaseQueued
	batch.Options = store.BatchOptions{
		Policy:                "stage-first",
		Tasks:                 tasks,
		VADMaxSingleSegmentMs: vadMaxSingleSegmentMs,
		VADMaxEndSilenceMs:    vadMaxEndSilenceMs,
	}
	batch.Items = items
	batch.CreatedAt = time.Now().UTC()
	batch.OutDir = outDir

	if err := store.SaveBatch(outDir, batch); err != nil {
		writeError(c, apierr.Wrap(apierr.ErrInternal, "", "create-batch", "persist batch", err))
		return
	}
	s.deps.Registry.PutBatch(batch)

	s.deps.Queue.Submit(func(ctx context.Context) error {
		return s.deps.BatchRunner.Run(ctx, batch)
	})

	c.JSON(http.StatusAccepted, gin.H{
		"batchId":   batch.ID,
		"statusUrl": fmt.Sprintf("/v2/batches/%s", batch.ID),
	})
}

func (s *Server) materializeBatchItem(c *gin.Context, spec itemSpec, outDir string, idx int) (boundary.Materialized, error) {
	switch spec.Kind {
	case "upload":
		fileHeader, err := c.FormFile(fmt.Sprintf("item%d", idx))
		if err != nil {
			return boundary.Materialized{}, apierr.New(apierr.CodeBadRequest, fmt.Sprintf("missing upload for item %d", idx))
		}
		spooled, err := os.CreateTemp("", "upload-*")
		if err != nil {
			return boundary.Materialized{}, apierr.Wrap(apierr.ErrInternal, "", "materialize-upload", "stage spool file", err)
		}
		spooledPath := spooled.Name()
		spooled.Close()
		if err := c.SaveUploadedFile(fileHeader, spooledPath); err != nil {
			os.Remove(spooledPath)
			return boundary.Materialized{}, apierr.Wrap(apierr.ErrInternal, "", "materialize-upload", "spool uploaded file", err)
		}
		dest := filepath.Join(store.InputsDir(outDir), strconv.Itoa(idx)+extOf(fileHeader.Filename))
		return boundary.MaterializeUpload(spooledPath, dest)

	case "audioPath":
		return boundary.MaterializeLocalPath(spec.Path)

	case "audioUrl":
		dest := filepath.Join(store.InputsDir(outDir), strconv.Itoa(idx)+extOf(spec.URL))
		return boundary.MaterializeURL(c.Request.Context(), s.deps.HTTPClient, spec.URL, dest, 0)

	default:
		return boundary.Materialized{}, apierr.New(apierr.CodeBadRequest, fmt.Sprintf("item %d: unrecognized kind %q", idx, spec.Kind))
	}
}

func (s *Server) listBatches(c *gin.Context) {
	batches := s.deps.Registry.BatchesSnapshot()
	views := make([]batchView, 0, len(batches))
	for i := range batches {
		views = append(views, s.renderBatch(&batches[i]))
	}
	c.JSON(http.StatusOK, gin.H{"batches": views})
}

func (s *Server) getBatch(c *gin.Context) {
	id := c.Param("id")
	batch := s.deps.Registry.Batch(id)
	if batch == nil {
		writeError(c, apierr.New(apierr.CodeNotFound, fmt.Sprintf("batch %q not found", id)))
		return
	}
	c.JSON(http.StatusOK, s.renderBatch(batch))
}

func (s *Server) downloadBatchItemArtifact(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("name")
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		writeError(c, apierr.New(apierr.CodeBadRequest, "item index must be an integer"))
		return
	}

	batch := s.deps.Registry.Batch(id)
	if batch == nil {
		writeError(c, apierr.New(apierr.CodeNotFound, fmt.Sprintf("batch %q not found", id)))
		return
	}
	if idx < 0 || idx >= len(batch.Items) {
		writeError(c, apierr.New(apierr.CodeNotFound, fmt.Sprintf("item %d not found", idx)))
		return
	}

	art := findArtifactByFilename(batch.Items[idx].Artifacts, name)
	if art == nil || !art.Ready {
		writeError(c, apierr.New(apierr.CodeNotFound, "Artifact not found (or not ready yet)"))
		return
	}
	c.FileAttachment(art.Path, art.Name)
}

func (s *Server) cancelBatch(c *gin.Context) {
	id := c.Param("id")
	batch := s.deps.Registry.Batch(id)
	if batch == nil {
		writeError(c, apierr.New(apierr.CodeNotFound, fmt.Sprintf("batch %q not found", id)))
		return
	}
	batchengine.RequestCancel(batch)
	c.JSON(http.StatusOK, s.renderBatch(batch))
}
