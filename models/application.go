package models

import (
	"fmt"
	"net/url"
	"time"
)

// Capability is the semantic role a located form element can fulfill,
// independent of its underlying markup.
type Capability string

const (
	CapabilityName Capability = "name"
	// Boards that split the name carry first/last capabilities instead of a
	// single full-name field.
	CapabilityFirstName     Capability = "first-name"
	CapabilityLastName      Capability = "last-name"
	CapabilityEmail         Capability = "email"
	CapabilityPhone         Capability = "phone"
	CapabilityResumeUpload  Capability = "resume-upload"
	CapabilitySubmitControl Capability = "submit-control"
	CapabilityUnknown       Capability = "unknown"
)

// NameCapabilities are the ways a candidate's name can land on a form: one
// full-name field, or a first/last pair.
var NameCapabilities = []Capability{CapabilityName, CapabilityFirstName, CapabilityLastName}

// ContactCapabilities are the candidate-data fields every run tries to locate.
var ContactCapabilities = []Capability{CapabilityName, CapabilityEmail, CapabilityPhone}

// FieldCandidate is a form element located on the live page. The element is
// always re-resolved through Selector against the run's own page; candidates
// are never persisted and never shared across runs.
type FieldCandidate struct {
	Capability Capability `json:"capability"`
	Selector   string     `json:"selector"`
	Strategy   string     `json:"strategy"`
	Confidence float64    `json:"confidence"`
}

// StepOutcome tags a single step record.
type StepOutcome string

const (
	StepInfo    StepOutcome = "info"
	StepSuccess StepOutcome = "success"
	StepWarning StepOutcome = "warning"
	StepError   StepOutcome = "error"
)

// StepRecord is one entry of the run's append-only step log.
type StepRecord struct {
	Timestamp time.Time   `json:"timestamp"`
	Outcome   StepOutcome `json:"outcome"`
	Message   string      `json:"message"`
}

// Classification identifies why a run failed, or which uncertainty it
// finished with. It is the only failure channel callers ever see.
type Classification string

const (
	ClassNone                  Classification = ""
	ClassNavigationFailed      Classification = "navigation_failed"
	ClassFormNotRecognized     Classification = "form_not_recognized"
	ClassFieldFillFailed       Classification = "field_fill_failed"
	ClassUploadFailed          Classification = "upload_failed"
	ClassSubmissionUnconfirmed Classification = "submission_unconfirmed"
	ClassTimeout               Classification = "timeout"
	ClassInternalError         Classification = "internal_error"
)

// SubmitOutcome is the three-way post-click confirmation state. An ambiguous
// page after clicking submit is reported as SubmitUnconfirmed, never
// collapsed into plain success.
type SubmitOutcome string

const (
	SubmitSkipped          SubmitOutcome = "skipped"
	SubmitNoControl        SubmitOutcome = "no_control"
	SubmitClickFailed      SubmitOutcome = "click_failed"
	SubmitConfirmedSuccess SubmitOutcome = "confirmed_success"
	SubmitConfirmedError   SubmitOutcome = "confirmed_error"
	SubmitUnconfirmed      SubmitOutcome = "unconfirmed"
)

// Clicked reports whether the outcome involved an actual click on the
// submit control.
func (o SubmitOutcome) Clicked() bool {
	switch o {
	case SubmitConfirmedSuccess, SubmitConfirmedError, SubmitUnconfirmed:
		return true
	}
	return false
}

// ApplicationRequest is the payload of POST /api/apply.
type ApplicationRequest struct {
	JobURL   string `json:"job_url" binding:"required"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`

	// Resume document: a downloadable URL or inline base64 bytes.
	ResumeURL string `json:"resume_url,omitempty"`
	ResumeB64 string `json:"resume_b64,omitempty"`

	// PlanOnly runs every step except the final submission.
	PlanOnly bool `json:"plan_only"`
	// AllowSubmit is the explicit second gate; both gates must open
	// before the submit control is ever clicked.
	AllowSubmit bool `json:"allow_submit"`
}

// MaySubmit reports whether this request permits clicking the submit control.
func (r *ApplicationRequest) MaySubmit() bool {
	return !r.PlanOnly && r.AllowSubmit
}

// Validate checks the request invariants before a browser session is spent
// on it.
func (r *ApplicationRequest) Validate() error {
	if r.JobURL == "" {
		return fmt.Errorf("job_url is required")
	}
	u, err := url.Parse(r.JobURL)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return fmt.Errorf("job_url must be an absolute URL")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if r.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if !r.PlanOnly && r.ResumeURL == "" && r.ResumeB64 == "" {
		return fmt.Errorf("resume_url or resume_b64 is required unless plan_only")
	}
	return nil
}

// CandidateProfile is the data actually typed into the form. It starts from
// the request and may be backfilled from the resume document.
type CandidateProfile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Value returns the profile value for a contact capability.
func (p *CandidateProfile) Value(cap Capability) string {
	switch cap {
	case CapabilityName:
		return p.FullName
	case CapabilityEmail:
		return p.Email
	case CapabilityPhone:
		return p.Phone
	}
	return ""
}

// ExecutionResult is the structured evidence of one run. It is built exactly
// once, after the browser session is torn down, and is immutable afterwards.
type ExecutionResult struct {
	RunID          string         `json:"run_id"`
	OK             bool           `json:"ok"`
	JobURL         string         `json:"job_url"`
	ElapsedSeconds float64        `json:"elapsed_s"`
	Submitted      bool           `json:"submitted"`
	SubmitOutcome  SubmitOutcome  `json:"submit_outcome"`
	Classification Classification `json:"classification,omitempty"`
	// ScreenshotB64 is the final full-page capture, base64 PNG. Empty only
	// when the capture itself failed; the log then carries a warning.
	ScreenshotB64 string       `json:"screenshot,omitempty"`
	ScreenshotKey string       `json:"screenshot_key,omitempty"`
	ScreenshotURL string       `json:"screenshot_url,omitempty"`
	Log           []StepRecord `json:"log"`
}
