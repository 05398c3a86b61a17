package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"transom/internal/apierr"
	"transom/internal/boundary"
	"transom/internal/store"
)

func (s *Server) createJob(c *gin.Context) {
	jobType, ok := store.NormalizeJobType(c.PostForm("type"))
	if !ok {
		writeError(c, apierr.New(apierr.CodeBadRequest, fmt.Sprintf("unrecognized job type %q", c.PostForm("type"))))
		return
	}

	id := uuid.NewString()
	outDir := filepath.Join(s.deps.Config.Paths.JobsDir, id)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		writeError(c, apierr.Wrap(apierr.ErrInternal, "", "create-job", "create job directory", err))
		return
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

	materialized, err := s.materializeInput(c, outDir, "input")
	if err != nil {
		writeError(c, err)
		return
	}

	job := &store.Job{
		ID:                    id,
		Type:                  jobType,
		SchemaVersion:         store.CurrentSchemaVersion,
		State:                 store.StateQueued,
		Phase:                 store.PhaseQueued,
		CreatedAt:             time.Now().UTC(),
		OutDir:                outDir,
		Source:                materialized.Source,
		AudioPath:             materialized.Path,
		CleanupAudioOnFinish:  materialized.Owned,
		VADMaxSingleSegmentMs: vadMaxSingleSegmentMs,
		VADMaxEndSilenceMs:    vadMaxEndSilenceMs,
		Artifacts:             make(map[store.ArtifactKey]*store.Artifact),
	}

	if err := store.SaveJob(outDir, job); err != nil {
		writeError(c, apierr.Wrap(apierr.ErrInternal, "", "create-job", "persist job", err))
		return
	}
	s.deps.Registry.PutJob(job)

	s.deps.Queue.Submit(func(ctx context.Context) error {
		return s.deps.JobRunner.Run(ctx, job)
	})

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":     job.ID,
		"statusUrl": fmt.Sprintf("/v2/jobs/%s", job.ID),
	})
}

func (s *Server) listJobs(c *gin.Context) {
	jobs := s.deps.Registry.JobsSnapshot()
	views := make([]jobView, 0, len(jobs))
	for i := range jobs {
		views = append(views, s.renderJob(&jobs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": views})
}

func (s *Server) getJob(c *gin.Context) {
	id := c.Param("id")
	job := s.deps.Registry.Job(id)
	if job == nil {
		writeError(c, apierr.New(apierr.CodeNotFound, fmt.Sprintf("job %q not found", id)))
		return
	}
	c.JSON(http.StatusOK, s.renderJob(job))
}

func (s *Server) downloadJobArtifact(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("name")

	job := s.deps.Registry.Job(id)
	if job == nil {
		writeError(c, apierr.New(apierr.CodeNotFound, fmt.Sprintf("job %q not found", id)))
		return
	}

	art := findArtifactByFilename(job.Artifacts, name)
	if art == nil || !art.Ready {
		writeError(c, apierr.New(apierr.CodeNotFound, "Artifact not found (or not ready yet)"))
		return
	}
	c.FileAttachment(art.Path, art.Name)
}

func findArtifactByFilename(artifacts map[store.ArtifactKey]*store.Artifact, name string) *store.Artifact {
	for _, art := range artifacts {
		if art != nil && art.Name == name {
			return art
		}
	}
	return nil
}

// materializeInput resolves whichever of the three input descriptor kinds
// the request carries — multipart file, audioPath, or audioUrl — into a
// path: an upload or download becomes an owned file under outDir, and an
// audioPath is referenced in place.
func (s *Server) materializeInput(c *gin.Context, outDir, baseName string) (boundary.Materialized, error) {
	if fileHeader, err := c.FormFile("file"); err == nil {
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
		dest := filepath.Join(outDir, baseName+extOf(fileHeader.Filename))
		return boundary.MaterializeUpload(spooledPath, dest)
	}

	if path := c.PostForm("audioPath"); path != "" {
		return boundary.MaterializeLocalPath(path)
	}

	if url := c.PostForm("audioUrl"); url != "" {
		dest := filepath.Join(outDir, baseName+extOf(url))
		maxBytes := int64(0)
		return boundary.MaterializeURL(c.Request.Context(), s.deps.HTTPClient, url, dest, maxBytes)
	}

	return boundary.Materialized{}, apierr.New(apierr.CodeBadRequest, "one of file, audioPath, or audioUrl is required")
}

func extOf(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ".bin"
	}
	return ext
}

// parseVADParam parses a VAD tuning form value. An absent value defaults to
// zero (worker default); a present value that isn't a positive integer is
// bad_request.
func parseVADParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, apierr.New(apierr.CodeBadRequest, fmt.Sprintf("vad param %q must be a positive integer", s))
	}
	return v, nil
}
