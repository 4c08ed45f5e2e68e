package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"autoapply/models"
)

// maxResumeBytes caps the downloaded document; anything larger is not a
// resume.
const maxResumeBytes = 10 << 20

// ResumeFetcher acquires the resume document for a run, either from inline
// base64 bytes or by downloading the given URL.
type ResumeFetcher struct {
	client *http.Client
}

func NewResumeFetcher() *ResumeFetcher {
	return &ResumeFetcher{
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

// Load returns the resume bytes for the request, preferring inline bytes
// over a download. A request with neither returns nil without error; the
// orchestrator decides whether that is acceptable for the run.
func (f *ResumeFetcher) Load(ctx context.Context, req *models.ApplicationRequest) ([]byte, error) {
	if req.ResumeB64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.ResumeB64)
		if err != nil {
			return nil, fmt.Errorf("invalid resume_b64: %w", err)
		}
		return data, nil
	}

	if req.ResumeURL == "" {
		return nil, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.ResumeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid resume_url: %w", err)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to download resume: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resume download returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResumeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read resume body: %w", err)
	}
	if len(data) > maxResumeBytes {
		return nil, fmt.Errorf("resume exceeds %d byte limit", maxResumeBytes)
	}
	return data, nil
}

// StageFile writes the resume bytes to a per-run temp file for
// SetInputFiles. The cleanup function removes the file and is always safe
// to defer.
func (f *ResumeFetcher) StageFile(data []byte) (string, func(), error) {
	tmp, err := os.CreateTemp("", "resume_*.pdf")
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create temp resume file: %w", err)
	}
	path := tmp.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("failed to write temp resume file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to close temp resume file: %w", err)
	}
	return path, cleanup, nil
}
