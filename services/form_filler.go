package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/text/unicode/norm"

	"autoapply/config"
	"autoapply/models"
)

// uploadProgressSelectors mark an in-flight upload; the filler waits for all
// of them to disappear before trusting the attach.
var uploadProgressSelectors = []string{
	"[role='progressbar']",
	"[class*='progress']:visible",
	"[class*='uploading']:visible",
	"[class*='spinner']:visible",
}

// FormFillerService applies profile values to located candidates and
// verifies every fill by reading the field back.
type FormFillerService struct {
	retries      int
	uploadSettle time.Duration
}

func NewFormFillerService(cfg config.AutomationConfig) *FormFillerService {
	return &FormFillerService{
		retries:      cfg.FillRetries,
		uploadSettle: cfg.UploadSettle,
	}
}

// Fill writes the profile into every located contact candidate, recording
// one step per field. Field-level failures are absorbed into the log and
// never abort the run; the returned count is how many fields were confirmed
// (exactly or after reformat).
func (s *FormFillerService) Fill(page playwright.Page, candidates map[models.Capability]models.FieldCandidate, profile *models.CandidateProfile, tracer *ExecutionTracer) int {
	filled := 0
	for _, cap := range models.ContactCapabilities {
		if cap == models.CapabilityName {
			filled += s.fillName(page, candidates, profile, tracer)
			continue
		}
		cand, ok := candidates[cap]
		if !ok {
			tracer.Warning("no %s field located, skipping", cap)
			continue
		}
		value := profile.Value(cap)
		if value == "" {
			tracer.Warning("no %s value in profile, skipping", cap)
			continue
		}
		if s.fillOne(page, cand, value, tracer) {
			filled++
		}
	}
	return filled
}

// fillName routes the candidate's name to whichever fields the page has:
// one full-name field, or a split first/last pair.
func (s *FormFillerService) fillName(page playwright.Page, candidates map[models.Capability]models.FieldCandidate, profile *models.CandidateProfile, tracer *ExecutionTracer) int {
	full := profile.Value(models.CapabilityName)
	if full == "" {
		tracer.Warning("no name value in profile, skipping")
		return 0
	}
	targets := nameTargets(candidates, full)
	if len(targets) == 0 {
		tracer.Warning("no name field located, skipping")
		return 0
	}
	filled := 0
	for _, t := range targets {
		if s.fillOne(page, t.cand, t.value, tracer) {
			filled++
		}
	}
	return filled
}

type fillTarget struct {
	cand  models.FieldCandidate
	value string
}

// nameTargets decides which located name fields receive which part of the
// name. A located first/last pair outranks a full-name hit: generic fallback
// chains can land a full-name candidate on the first-name input.
func nameTargets(candidates map[models.Capability]models.FieldCandidate, full string) []fillTarget {
	first, okFirst := candidates[models.CapabilityFirstName]
	last, okLast := candidates[models.CapabilityLastName]
	if okFirst && okLast {
		head, tail := splitFullName(full)
		targets := []fillTarget{{first, head}}
		if tail != "" {
			targets = append(targets, fillTarget{last, tail})
		}
		return targets
	}
	if cand, ok := candidates[models.CapabilityName]; ok {
		return []fillTarget{{cand, full}}
	}
	if okFirst {
		head, _ := splitFullName(full)
		return []fillTarget{{first, head}}
	}
	return nil
}

// splitFullName splits at the first space: everything after the first word is
// the family name.
func splitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// fillOne sets the value and re-reads the field to confirm the widget
// accepted it. Some third-party widgets reformat on blur, so a value that
// still matches after normalization counts as accepted with a warning.
func (s *FormFillerService) fillOne(page playwright.Page, cand models.FieldCandidate, value string, tracer *ExecutionTracer) bool {
	element := page.Locator(cand.Selector).First()

	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := element.Clear(); err != nil {
			continue
		}
		if err := element.Fill(value); err != nil {
			continue
		}
		got, err := element.InputValue()
		if err != nil {
			continue
		}
		if got == value {
			tracer.Success("filled %s field (%s strategy)", cand.Capability, cand.Strategy)
			return true
		}
		if normalizedMatch(cand.Capability, value, got) {
			tracer.Warning("%s field reformatted input to %q, accepting", cand.Capability, got)
			return true
		}
	}

	tracer.Error("%s field rejected value after %d retries", cand.Capability, s.retries)
	return false
}

// UploadResume attaches the resume file and waits for an upload-completion
// signal. A premature submit with an incomplete upload invalidates the whole
// application, so an unconfirmed upload is returned as an error for the
// orchestrator to treat as fatal.
func (s *FormFillerService) UploadResume(page playwright.Page, cand models.FieldCandidate, resumePath string, tracer *ExecutionTracer) error {
	element := page.Locator(cand.Selector).First()

	if err := element.SetInputFiles(resumePath); err != nil {
		return fmt.Errorf("failed to attach resume: %w", err)
	}
	tracer.Info("resume attached to %s input (%s strategy)", cand.Capability, cand.Strategy)

	if err := s.waitForUploadCompletion(page, cand, resumePath); err != nil {
		return err
	}
	tracer.Success("resume upload confirmed: %s", filepath.Base(resumePath))
	return nil
}

// waitForUploadCompletion polls for a file-name echo and for progress
// indicators to clear, then applies the fixed settle delay. The input still
// being empty after all of that means the widget dropped the file.
func (s *FormFillerService) waitForUploadCompletion(page playwright.Page, cand models.FieldCandidate, resumePath string) error {
	deadline := time.Now().Add(s.uploadSettle)
	fileName := filepath.Base(resumePath)

	for time.Now().Before(deadline) {
		if s.uploadInFlight(page) {
			page.WaitForTimeout(200)
			continue
		}
		if s.uploadEchoed(page, cand, fileName) {
			return nil
		}
		page.WaitForTimeout(200)
	}

	// Settle window exhausted; one last check before declaring failure.
	if !s.uploadInFlight(page) && s.uploadEchoed(page, cand, fileName) {
		return nil
	}
	return fmt.Errorf("resume upload did not complete within %s", s.uploadSettle)
}

func (s *FormFillerService) uploadInFlight(page playwright.Page) bool {
	for _, selector := range uploadProgressSelectors {
		if visible, err := page.Locator(selector).First().IsVisible(); err == nil && visible {
			return true
		}
	}
	return false
}

func (s *FormFillerService) uploadEchoed(page playwright.Page, cand models.FieldCandidate, fileName string) bool {
	// File inputs echo the selected file in their value.
	if got, err := page.Locator(cand.Selector).First().InputValue(); err == nil && strings.Contains(got, fileName) {
		return true
	}
	// Styled uploaders hide the input and print the file name nearby.
	echo := page.Locator(fmt.Sprintf("text=%s", fileName)).First()
	if visible, err := echo.IsVisible(); err == nil && visible {
		return true
	}
	return false
}

// FillOptionalControls handles the checkboxes and dropdowns that sit next to
// the contact fields. Acknowledgment checkboxes get checked; a required
// dropdown with exactly one real option gets that option; anything else is
// left alone and logged, since guessing answers is worse than an incomplete
// form.
func (s *FormFillerService) FillOptionalControls(page playwright.Page, tracer *ExecutionTracer) {
	checkboxes, _ := page.Locator("input[type='checkbox']:visible").All()
	for _, checkbox := range checkboxes {
		name, _ := checkbox.GetAttribute("name")
		fieldInfo := strings.ToLower(name)
		if !strings.Contains(fieldInfo, "acknowledge") &&
			!strings.Contains(fieldInfo, "agree") &&
			!strings.Contains(fieldInfo, "consent") {
			continue
		}
		if checked, _ := checkbox.IsChecked(); !checked {
			if err := checkbox.Check(); err == nil {
				tracer.Success("checked acknowledgment checkbox %q", name)
			}
		}
	}

	selects, _ := page.Locator("select[required]:visible, select[aria-required='true']:visible").All()
	for _, sel := range selects {
		current, err := sel.InputValue()
		if err != nil || !isPlaceholderOption(current) {
			continue
		}
		options, _ := sel.Locator("option").All()
		real := []string{}
		for _, opt := range options {
			value, _ := opt.GetAttribute("value")
			if !isPlaceholderOption(value) {
				real = append(real, value)
			}
		}
		name, _ := sel.GetAttribute("name")
		if len(real) == 1 {
			if _, err := sel.SelectOption(playwright.SelectOptionValues{Values: &[]string{real[0]}}); err == nil {
				tracer.Success("selected sole option for required dropdown %q", name)
				continue
			}
		}
		tracer.Warning("required dropdown %q left unanswered (%d options)", name, len(real))
	}
}

func isPlaceholderOption(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "" || v == "0" || strings.Contains(v, "select")
}

// normalizedMatch compares want and got after NFKC folding; phone values
// additionally compare digits only, since tel widgets insert punctuation.
func normalizedMatch(cap models.Capability, want, got string) bool {
	w := normalizeValue(want)
	g := normalizeValue(got)
	if w == g {
		return true
	}
	if cap == models.CapabilityPhone {
		return digitsOnly(w) != "" && digitsOnly(w) == digitsOnly(g)
	}
	return false
}

func normalizeValue(s string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFKC.String(s)))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
