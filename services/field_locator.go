package services

import (
	"log"

	"github.com/playwright-community/playwright-go"

	"autoapply/models"
)

// locatorStrategy is one heuristic for finding a field. Strategies are pure
// data: a selector, a name for the step log, and a fixed confidence. Chains
// are ordered most-specific first so the first visible hit above the
// threshold wins.
type locatorStrategy struct {
	Name       string
	Selector   string
	Confidence float64
}

// Generic chains, ordered: exact attribute match, label association,
// placeholder/ARIA text, then positional fallback inside a form container.
var genericStrategies = map[models.Capability][]locatorStrategy{
	models.CapabilityName: {
		{"attribute", "input[name='name'], input[name='full_name'], input[name='fullName'], input#name", 0.9},
		{"label", "label:has-text('Full Name') + input, label:has-text('Name') + input", 0.75},
		{"placeholder", "input[placeholder*='Full Name' i], input[placeholder*='Your Name' i], input[placeholder*='name' i]", 0.65},
		{"aria", "input[aria-label*='name' i]", 0.6},
		{"positional", "form input[type='text']:visible", 0.35},
	},
	models.CapabilityFirstName: {
		{"attribute", "input[name='first_name'], input[name='firstName'], input#first_name, input[autocomplete='given-name']", 0.9},
		{"label", "label:has-text('First Name') + input", 0.75},
		{"placeholder", "input[placeholder*='First Name' i]", 0.65},
	},
	models.CapabilityLastName: {
		{"attribute", "input[name='last_name'], input[name='lastName'], input#last_name, input[autocomplete='family-name']", 0.9},
		{"label", "label:has-text('Last Name') + input", 0.75},
		{"placeholder", "input[placeholder*='Last Name' i]", 0.65},
	},
	models.CapabilityEmail: {
		{"attribute", "input[type='email'], input[name='email'], input[name='email_address'], input#email", 0.95},
		{"label", "label:has-text('Email') + input", 0.75},
		{"placeholder", "input[placeholder*='Email' i], input[placeholder*='@']", 0.65},
		{"aria", "input[aria-label*='email' i]", 0.6},
	},
	models.CapabilityPhone: {
		{"attribute", "input[type='tel'], input[name='phone'], input[name='phone_number'], input#phone", 0.95},
		{"label", "label:has-text('Phone') + input", 0.75},
		{"placeholder", "input[placeholder*='Phone' i]", 0.65},
		{"aria", "input[aria-label*='phone' i]", 0.6},
	},
	models.CapabilityResumeUpload: {
		{"attribute", "input[type='file'][name*='resume' i], input[type='file'][name*='cv' i]", 0.95},
		{"aria", "input[type='file'][aria-label*='resume' i]", 0.7},
		{"accept", "input[type='file'][accept*='pdf']", 0.6},
		{"positional", "input[type='file']", 0.4},
	},
	models.CapabilitySubmitControl: {
		{"attribute", "button[type='submit']:visible, input[type='submit']:visible", 0.9},
		{"text", "button:has-text('Submit Application'):visible, button:has-text('Submit'):visible, button:has-text('Apply'):visible, button:has-text('Send Application'):visible", 0.75},
		{"aria", "button[class*='submit']:visible, button[id*='submit']:visible", 0.55},
	},
}

// Vendor-specific chains tried before the generic ones. Workday and Ashby
// render custom widgets where the generic attribute chains misfire.
var vendorStrategies = map[ATSVendor]map[models.Capability][]locatorStrategy{
	ATSGreenhouse: {
		// Greenhouse always splits the name; filling input#first_name with
		// the full name would leave the required last-name field empty.
		models.CapabilityFirstName: {{"vendor", "input#first_name", 0.95}},
		models.CapabilityLastName:  {{"vendor", "input#last_name", 0.95}},
		models.CapabilityEmail:     {{"vendor", "input#email", 0.95}},
		models.CapabilityPhone:     {{"vendor", "input#phone", 0.95}},
	},
	ATSLever: {
		models.CapabilityName:  {{"vendor", "input[name='name']", 0.95}},
		models.CapabilityEmail: {{"vendor", "input[name='email']", 0.95}},
		models.CapabilityPhone: {{"vendor", "input[name='phone']", 0.95}},
		models.CapabilityResumeUpload: {
			{"vendor", "input[name='resume']", 0.95},
		},
	},
	ATSWorkday: {
		models.CapabilityName:  {{"vendor", "input[data-automation-id*='legalName' i]", 0.9}},
		models.CapabilityEmail: {{"vendor", "input[data-automation-id*='email' i]", 0.9}},
		models.CapabilityPhone: {{"vendor", "input[data-automation-id*='phone' i]", 0.9}},
		models.CapabilitySubmitControl: {
			{"vendor", "button[data-automation-id*='submit' i]", 0.9},
		},
	},
	ATSAshby: {
		models.CapabilityName:  {{"vendor", "input[id*='_systemfield_name']", 0.9}},
		models.CapabilityEmail: {{"vendor", "input[id*='_systemfield_email']", 0.9}},
	},
}

// strategiesFor returns the full chain for a capability: vendor-specific
// strategies first, then the generic chain. The result is deterministic for
// a given (vendor, capability) pair.
func strategiesFor(vendor ATSVendor, cap models.Capability) []locatorStrategy {
	chain := []locatorStrategy{}
	if byCap, ok := vendorStrategies[vendor]; ok {
		chain = append(chain, byCap[cap]...)
	}
	return append(chain, genericStrategies[cap]...)
}

// FieldLocatorService finds candidate-data elements on a live page. It fails
// soft: capabilities with no visible candidate above the threshold are simply
// absent from the result map.
type FieldLocatorService struct {
	threshold float64
	// visible and present are the only page probes the locator performs;
	// tests swap them for fixture-backed functions.
	visible func(page playwright.Page, selector string) bool
	present func(page playwright.Page, selector string) bool
}

func NewFieldLocatorService(threshold float64) *FieldLocatorService {
	return &FieldLocatorService{
		threshold: threshold,
		visible:   selectorVisible,
		present:   selectorPresent,
	}
}

func selectorVisible(page playwright.Page, selector string) bool {
	visible, err := page.Locator(selector).First().IsVisible()
	return err == nil && visible
}

func selectorPresent(page playwright.Page, selector string) bool {
	count, err := page.Locator(selector).Count()
	return err == nil && count > 0
}

// Locate maps each wanted capability to the first candidate whose strategy
// confidence clears the threshold. Re-running against an unchanged page
// yields the same mapping: the chains are fixed data and only the first
// visible hit is kept.
func (s *FieldLocatorService) Locate(page playwright.Page, vendor ATSVendor, wanted []models.Capability) map[models.Capability]models.FieldCandidate {
	found := make(map[models.Capability]models.FieldCandidate, len(wanted))

	for _, cap := range wanted {
		// File inputs are routinely hidden behind styled drop zones, so
		// resume uploads probe for presence instead of visibility.
		probe := s.visible
		if cap == models.CapabilityResumeUpload {
			probe = s.present
		}
		for _, strat := range strategiesFor(vendor, cap) {
			if strat.Confidence < s.threshold {
				continue
			}
			if !probe(page, strat.Selector) {
				continue
			}
			found[cap] = models.FieldCandidate{
				Capability: cap,
				Selector:   strat.Selector,
				Strategy:   strat.Name,
				Confidence: strat.Confidence,
			}
			log.Printf("✓ Located %s via %s strategy (confidence %.2f)", cap, strat.Name, strat.Confidence)
			break
		}
	}

	return found
}
