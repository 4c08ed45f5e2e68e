package services

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"autoapply/config"
	"autoapply/models"
	"autoapply/parsers"
	"autoapply/utils"
)

// applyOpenerSelectors open the application form when the posting hides it
// behind an Apply button or modal.
var applyOpenerSelectors = []string{
	"a:has-text('Apply'):visible",
	"button:has-text('Apply'):visible",
	"a:has-text('Apply Now'):visible",
	"button:has-text('Apply Now'):visible",
	"a:has-text('Candidatar'):visible",
}

// Stage interfaces let the state machine be driven against fakes; the real
// implementations are the playwright-backed services in this package.

type sessionOpener interface {
	OpenPage(jobURL string, timeout time.Duration) (playwright.Page, func(), error)
}

type fieldLocator interface {
	Locate(page playwright.Page, vendor ATSVendor, wanted []models.Capability) map[models.Capability]models.FieldCandidate
}

type formFiller interface {
	Fill(page playwright.Page, candidates map[models.Capability]models.FieldCandidate, profile *models.CandidateProfile, tracer *ExecutionTracer) int
	FillOptionalControls(page playwright.Page, tracer *ExecutionTracer)
	UploadResume(page playwright.Page, cand models.FieldCandidate, resumePath string, tracer *ExecutionTracer) error
}

type submitter interface {
	MaybeSubmit(page playwright.Page, candidates map[models.Capability]models.FieldCandidate, req *models.ApplicationRequest, tracer *ExecutionTracer) models.SubmitOutcome
}

type resumeLoader interface {
	Load(ctx context.Context, req *models.ApplicationRequest) ([]byte, error)
	StageFile(data []byte) (string, func(), error)
}

// RunOrchestrator drives one application run through its states:
// Init → PageLoaded → FieldsLocated → Filled → SubmitDecision → Done.
// Every run gets its own page, its own tracer, and exactly one
// ExecutionResult; no failure mode escapes as a raw error.
type RunOrchestrator struct {
	cfg       config.AutomationConfig
	opener    sessionOpener
	locator   fieldLocator
	filler    formFiller
	submitter submitter
	resumes   resumeLoader
	contacts  *parsers.ContactExtractor
	archive   *S3Service
	logger    *utils.Logger
}

// NewRunOrchestrator wires the real playwright-backed stages. The S3 service
// may be nil; archival is then skipped.
func NewRunOrchestrator(cfg config.AutomationConfig, browser *BrowserService, archive *S3Service) *RunOrchestrator {
	return &RunOrchestrator{
		cfg:       cfg,
		opener:    browser,
		locator:   NewFieldLocatorService(cfg.ConfidenceThreshold),
		filler:    NewFormFillerService(cfg),
		submitter: NewSubmissionService(cfg),
		resumes:   NewResumeFetcher(),
		contacts:  parsers.NewContactExtractor(),
		archive:   archive,
		logger:    utils.NewLogger(),
	}
}

// Execute runs one application end to end within the global time budget and
// always returns a well-formed result.
func (o *RunOrchestrator) Execute(ctx context.Context, req *models.ApplicationRequest) (result *models.ExecutionResult) {
	runID := uuid.New().String()[:8]
	tracer := NewExecutionTracer(runID)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.TimeBudget)
	defer cancel()

	var page playwright.Page

	// The automation capability occasionally faults in ways no error path
	// anticipates; the caller still gets a classified result.
	defer func() {
		if r := recover(); r != nil {
			tracer.Error("internal fault: %v", r)
			result = o.finalize(runID, req, tracer, page, models.SubmitSkipped, models.ClassInternalError)
		}
	}()

	tracer.Info("starting application run for %s", req.JobURL)

	// Resume acquisition happens before the browser is spent on the run.
	resumePath := ""
	resumeBytes, err := o.resumes.Load(ctx, req)
	if err != nil {
		if !req.PlanOnly {
			tracer.Error("resume acquisition failed: %v", err)
			return o.finalize(runID, req, tracer, nil, models.SubmitSkipped, models.ClassUploadFailed)
		}
		tracer.Warning("resume acquisition failed, continuing plan-only run: %v", err)
	}
	if resumeBytes != nil {
		path, cleanupResume, err := o.resumes.StageFile(resumeBytes)
		if err != nil {
			tracer.Error("resume staging failed: %v", err)
			return o.finalize(runID, req, tracer, nil, models.SubmitSkipped, models.ClassUploadFailed)
		}
		defer cleanupResume()
		resumePath = path
	}

	profile := o.buildProfile(req, resumePath, tracer)
	vendor := DetectATS(req.JobURL)
	tracer.Info("detected ATS vendor: %s", vendor)

	// Init → PageLoaded
	var cleanupPage func()
	page, cleanupPage, err = o.opener.OpenPage(req.JobURL, o.remaining(ctx, o.cfg.NavigationTimeout))
	defer func() {
		if cleanupPage != nil {
			cleanupPage()
		}
	}()
	if err != nil {
		tracer.Error("%v", err)
		return o.finalize(runID, req, tracer, page, models.SubmitSkipped, models.ClassNavigationFailed)
	}
	tracer.Info("job page loaded")

	if o.overBudget(ctx, tracer) {
		return o.finalize(runID, req, tracer, page, models.SubmitSkipped, models.ClassTimeout)
	}

	o.openApplyForm(page, tracer)
	o.clampPageTimeout(ctx, page)

	// PageLoaded → FieldsLocated
	wanted := append(append([]models.Capability{}, models.NameCapabilities...),
		models.CapabilityEmail, models.CapabilityPhone,
		models.CapabilityResumeUpload, models.CapabilitySubmitControl)
	candidates := o.locator.Locate(page, vendor, wanted)
	if !hasContactCandidates(candidates) {
		tracer.Error("no usable contact fields located on page")
		return o.finalize(runID, req, tracer, page, models.SubmitSkipped, models.ClassFormNotRecognized)
	}
	tracer.Info("located %d form fields", len(candidates))

	if o.overBudget(ctx, tracer) {
		return o.finalize(runID, req, tracer, page, models.SubmitSkipped, models.ClassTimeout)
	}
	o.clampPageTimeout(ctx, page)

	// FieldsLocated → Filled. Individual fill failures are absorbed into
	// the log; only the total absence of confirmed fills aborts.
	filled := o.filler.Fill(page, candidates, profile, tracer)
	if filled == 0 {
		tracer.Error("every located field rejected its value")
		return o.finalize(runID, req, tracer, page, models.SubmitSkipped, models.ClassFieldFillFailed)
	}
	o.filler.FillOptionalControls(page, tracer)

	if resumePath != "" {
		cand, ok := candidates[models.CapabilityResumeUpload]
		if !ok {
			if req.MaySubmit() {
				tracer.Error("no resume upload field located, cannot submit a resume-less application")
				return o.finalize(runID, req, tracer, page, models.SubmitSkipped, models.ClassUploadFailed)
			}
			tracer.Warning("no resume upload field located")
		} else if err := o.filler.UploadResume(page, cand, resumePath, tracer); err != nil {
			tracer.Error("%v", err)
			return o.finalize(runID, req, tracer, page, models.SubmitSkipped, models.ClassUploadFailed)
		}
	}

	if o.overBudget(ctx, tracer) {
		return o.finalize(runID, req, tracer, page, models.SubmitSkipped, models.ClassTimeout)
	}
	o.clampPageTimeout(ctx, page)

	// Filled → SubmitDecision → Done
	outcome := o.submitter.MaybeSubmit(page, candidates, req, tracer)

	classification := models.ClassNone
	switch outcome {
	case models.SubmitSkipped:
		if tracer.ErrorCount() > 0 {
			classification = models.ClassFieldFillFailed
		}
	case models.SubmitNoControl:
		classification = models.ClassFormNotRecognized
	case models.SubmitClickFailed:
		classification = models.ClassInternalError
	case models.SubmitConfirmedError, models.SubmitUnconfirmed:
		classification = models.ClassSubmissionUnconfirmed
	}

	return o.finalize(runID, req, tracer, page, outcome, classification)
}

// buildProfile starts from the request and backfills missing contact fields
// from the resume document, mirroring what a human applicant would fall
// back to.
func (o *RunOrchestrator) buildProfile(req *models.ApplicationRequest, resumePath string, tracer *ExecutionTracer) *models.CandidateProfile {
	profile := &models.CandidateProfile{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	}

	if resumePath == "" || (profile.FullName != "" && profile.Email != "" && profile.Phone != "") {
		return profile
	}

	info, err := o.contacts.ExtractFromPDF(resumePath)
	if err != nil {
		tracer.Warning("resume contact extraction failed: %v", err)
		return profile
	}
	if profile.FullName == "" && info.FullName != "" {
		profile.FullName = info.FullName
		tracer.Info("backfilled full_name from resume")
	}
	if profile.Email == "" && info.Email != "" {
		profile.Email = info.Email
		tracer.Info("backfilled email from resume")
	}
	if profile.Phone == "" && info.Phone != "" {
		profile.Phone = info.Phone
		tracer.Info("backfilled phone from resume")
	}
	return profile
}

// openApplyForm clicks through an Apply opener when the form is behind one.
// Purely best effort; most embedded ATS pages render the form directly.
func (o *RunOrchestrator) openApplyForm(page playwright.Page, tracer *ExecutionTracer) {
	if page == nil {
		return
	}
	for _, selector := range applyOpenerSelectors {
		opener := page.Locator(selector).First()
		visible, err := opener.IsVisible()
		if err != nil || !visible {
			continue
		}
		if err := opener.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(2500)}); err != nil {
			continue
		}
		tracer.Info("opened application form via %s", selector)
		page.WaitForTimeout(1000)
		return
	}
}

// clampPageTimeout re-arms the page default timeout to what is left of the
// run budget, so a single stalled locator call inside a stage cannot outlive
// the run by the full navigation timeout.
func (o *RunOrchestrator) clampPageTimeout(ctx context.Context, page playwright.Page) {
	if page == nil {
		return
	}
	left := o.remaining(ctx, o.cfg.NavigationTimeout)
	if left < 0 {
		left = 0
	}
	page.SetDefaultTimeout(float64(left.Milliseconds()))
}

// remaining clamps a stage timeout to what is left of the run budget.
func (o *RunOrchestrator) remaining(ctx context.Context, stage time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return stage
	}
	left := time.Until(deadline)
	if left < stage {
		return left
	}
	return stage
}

func (o *RunOrchestrator) overBudget(ctx context.Context, tracer *ExecutionTracer) bool {
	if ctx.Err() == nil {
		return false
	}
	tracer.Error("global time budget exceeded after %.1fs", tracer.Elapsed().Seconds())
	return true
}

// finalize is the single exit of the state machine: it captures final
// evidence, builds the immutable result, and records run metrics.
func (o *RunOrchestrator) finalize(runID string, req *models.ApplicationRequest, tracer *ExecutionTracer, page playwright.Page, outcome models.SubmitOutcome, classification models.Classification) *models.ExecutionResult {
	png := tracer.CaptureFinal(page)

	screenshotKey := ""
	screenshotURL := ""
	if len(png) > 0 && o.archive != nil {
		key, err := o.archive.ArchiveScreenshot(runID, png)
		if err != nil {
			tracer.Warning("screenshot archive failed: %v", err)
			o.logger.Warn("screenshot archive failed", map[string]interface{}{
				"run_id": runID,
				"error":  err.Error(),
			})
		} else {
			screenshotKey = key
			if url, err := o.archive.GeneratePresignedURL(key); err == nil {
				screenshotURL = url
			}
		}
	}

	result := &models.ExecutionResult{
		RunID:          runID,
		OK:             classification == models.ClassNone,
		JobURL:         req.JobURL,
		ElapsedSeconds: tracer.Elapsed().Seconds(),
		Submitted:      outcome.Clicked(),
		SubmitOutcome:  outcome,
		Classification: classification,
		ScreenshotKey:  screenshotKey,
		ScreenshotURL:  screenshotURL,
		Log:            tracer.Steps(),
	}
	if len(png) > 0 {
		result.ScreenshotB64 = base64.StdEncoding.EncodeToString(png)
	}

	observeRun(result)
	fields := map[string]interface{}{
		"run_id":         result.RunID,
		"ok":             result.OK,
		"classification": string(result.Classification),
		"submit_outcome": string(result.SubmitOutcome),
		"elapsed_s":      result.ElapsedSeconds,
	}
	if result.OK {
		o.logger.Info("run finished", fields)
	} else {
		o.logger.Error("run failed", nil, fields)
	}
	return result
}

func hasContactCandidates(candidates map[models.Capability]models.FieldCandidate) bool {
	caps := append(append([]models.Capability{}, models.NameCapabilities...),
		models.CapabilityEmail, models.CapabilityPhone)
	for _, cap := range caps {
		if _, ok := candidates[cap]; ok {
			return true
		}
	}
	return false
}
