package services

import (
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"autoapply/config"
	"autoapply/models"
)

// successHints are confirmation phrases seen across ATS vendors, including
// the Portuguese and Spanish variants several boards localize to.
var successHints = []string{
	"thank you",
	"thanks for applying",
	"application received",
	"application submitted",
	"successfully applied",
	"we'll be in touch",
	"we will be in touch",
	"your application has been submitted",
	"application complete",
	"obrigado",
	"candidatura recebida",
	"candidatura enviada",
	"gracias",
}

// successURLMarkers name the common confirmation landing paths. They only
// accelerate recognition in the step log; leaving the application page is a
// confirmation signal on its own.
var successURLMarkers = []string{"/success", "/confirmation", "/thank-you", "/complete", "/submitted"}

// errorBannerSelectors surface a rejected submission.
var errorBannerSelectors = []string{
	"[role='alert']:visible",
	"[class*='error-banner']:visible",
	"[class*='form-error']:visible",
	"[class*='field_error']:visible",
	".error-message:visible",
}

// SubmissionService decides whether to click the submit control and confirms
// what happened afterwards. The skip path never touches the page, so it is
// safe in any page state.
type SubmissionService struct {
	confirmWait time.Duration
	// Page probes, swapped for fixture-backed functions in tests the same
	// way the locator's are.
	currentURL func(page playwright.Page) string
	content    func(page playwright.Page) string
	banner     func(page playwright.Page) (string, bool)
	settle     func(page playwright.Page, ms float64)
}

func NewSubmissionService(cfg config.AutomationConfig) *SubmissionService {
	return &SubmissionService{
		confirmWait: cfg.ConfirmWait,
		currentURL:  func(page playwright.Page) string { return page.URL() },
		content: func(page playwright.Page) string {
			html, err := page.Content()
			if err != nil {
				return ""
			}
			return html
		},
		banner: visibleErrorBanner,
		settle: func(page playwright.Page, ms float64) { page.WaitForTimeout(ms) },
	}
}

func visibleErrorBanner(page playwright.Page) (string, bool) {
	for _, selector := range errorBannerSelectors {
		banner := page.Locator(selector).First()
		if visible, err := banner.IsVisible(); err == nil && visible {
			text, _ := banner.TextContent()
			return strings.TrimSpace(text), true
		}
	}
	return "", false
}

// MaybeSubmit enforces both configuration gates, then clicks the located
// submit control and waits for a URL change, a confirmation phrase, or an
// error banner. It never clicks anything that was not located as a
// submit-control candidate.
func (s *SubmissionService) MaybeSubmit(page playwright.Page, candidates map[models.Capability]models.FieldCandidate, req *models.ApplicationRequest, tracer *ExecutionTracer) models.SubmitOutcome {
	if !req.MaySubmit() {
		tracer.Info("submission skipped by configuration (plan_only=%t, allow_submit=%t)", req.PlanOnly, req.AllowSubmit)
		return models.SubmitSkipped
	}

	cand, ok := candidates[models.CapabilitySubmitControl]
	if !ok {
		tracer.Error("no submit control located, refusing to click arbitrary buttons")
		return models.SubmitNoControl
	}

	button := page.Locator(cand.Selector).First()
	if disabled, err := button.IsDisabled(); err == nil && disabled {
		tracer.Error("submit control is disabled, not submitting")
		return models.SubmitNoControl
	}

	startURL := s.currentURL(page)
	if err := button.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		tracer.Error("failed to click submit control: %v", err)
		return models.SubmitClickFailed
	}
	tracer.Success("clicked submit control (%s strategy)", cand.Strategy)

	return s.confirm(page, startURL, tracer)
}

// confirm polls the page for up to the confirmation budget. Error banners are
// checked first so a rejected submission that re-renders the form is never
// mistaken for a redirect. Leaving the start URL confirms success by itself;
// none of the three signals appearing means the submission happened but could
// not be verified, and that uncertainty is reported, never upgraded.
func (s *SubmissionService) confirm(page playwright.Page, startURL string, tracer *ExecutionTracer) models.SubmitOutcome {
	deadline := time.Now().Add(s.confirmWait)

	for {
		if text, found := s.banner(page); found {
			tracer.Error("error banner after submit: %s", text)
			return models.SubmitConfirmedError
		}

		if containsSuccessHint(s.content(page)) {
			tracer.Success("confirmation text detected on page")
			return models.SubmitConfirmedSuccess
		}

		if current := s.currentURL(page); current != startURL {
			if urlLooksConfirmed(current) {
				tracer.Success("confirmation page reached: %s", current)
			} else {
				tracer.Success("left application page after submit: %s", current)
			}
			return models.SubmitConfirmedSuccess
		}

		if !time.Now().Before(deadline) {
			break
		}
		s.settle(page, 500)
	}

	tracer.Warning("submitted, but no confirmation signal within %s", s.confirmWait)
	return models.SubmitUnconfirmed
}

func containsSuccessHint(html string) bool {
	lower := strings.ToLower(html)
	for _, hint := range successHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func urlLooksConfirmed(pageURL string) bool {
	lower := strings.ToLower(pageURL)
	for _, marker := range successURLMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
