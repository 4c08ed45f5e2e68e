package services

import (
	"net/url"
	"strings"
)

// ATSVendor identifies the applicant-tracking platform that rendered the
// job page. Detection steers which selector chains are tried first; every
// vendor still falls through to the generic chains.
type ATSVendor string

const (
	ATSGreenhouse ATSVendor = "greenhouse"
	ATSLever      ATSVendor = "lever"
	ATSWorkday    ATSVendor = "workday"
	ATSAshby      ATSVendor = "ashby"
	ATSLinkedIn   ATSVendor = "linkedin"
	ATSIndeed     ATSVendor = "indeed"
	ATSGlassdoor  ATSVendor = "glassdoor"
	ATSGeneric    ATSVendor = "generic"
)

// DetectATS determines the platform from the job URL hostname.
func DetectATS(jobURL string) ATSVendor {
	parsed, err := url.Parse(jobURL)
	if err != nil {
		return ATSGeneric
	}
	host := strings.ToLower(parsed.Hostname())

	switch {
	case strings.Contains(host, "greenhouse.io"):
		return ATSGreenhouse
	case strings.Contains(host, "lever.co"):
		return ATSLever
	case strings.Contains(host, "myworkdayjobs.com") || strings.Contains(host, "workday.com"):
		return ATSWorkday
	case strings.Contains(host, "ashbyhq.com"):
		return ATSAshby
	case strings.Contains(host, "linkedin.com"):
		return ATSLinkedIn
	case strings.Contains(host, "indeed.com"):
		return ATSIndeed
	case strings.Contains(host, "glassdoor.com"):
		return ATSGlassdoor
	default:
		return ATSGeneric
	}
}
