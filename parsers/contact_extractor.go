package parsers

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// ContactInfo is the candidate contact data recoverable from a resume
// document, used to backfill gaps in the request profile.
type ContactInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// ContactExtractor pulls contact details out of resume text.
type ContactExtractor struct {
	emailRegex *regexp.Regexp
	phoneRegex *regexp.Regexp
	nameRegex  *regexp.Regexp
}

func NewContactExtractor() *ContactExtractor {
	return &ContactExtractor{
		emailRegex: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
		phoneRegex: regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?(\d{3})\)?[-.\s]?(\d{3})[-.\s]?(\d{4})`),
		nameRegex:  regexp.MustCompile(`^[A-ZÀ-Ú][a-zà-ú'.-]+(?:\s+[A-ZÀ-Ú][a-zà-ú'.-]+){1,2}$`),
	}
}

// ExtractFromPDF extracts the text layer of a resume PDF and scans it for
// contact details. Extraction is best effort: a missing pdftotext binary or
// an image-only PDF yields an error, not a partial guess.
func (e *ContactExtractor) ExtractFromPDF(path string) (*ContactInfo, error) {
	text, err := extractPDFText(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(text), nil
}

// Extract scans resume text for an email address, a phone number, and a
// likely candidate name near the top of the document.
func (e *ContactExtractor) Extract(text string) *ContactInfo {
	info := &ContactInfo{}

	if m := e.emailRegex.FindString(text); m != "" {
		info.Email = m
	}
	if m := e.phoneRegex.FindString(text); m != "" {
		info.Phone = strings.TrimSpace(m)
	}

	// The candidate name is almost always one of the first non-empty lines,
	// capitalized, two or three words.
	lines := strings.Split(text, "\n")
	checked := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if checked++; checked > 15 {
			break
		}
		if e.nameRegex.MatchString(line) {
			info.FullName = line
			break
		}
	}

	return info
}

// extractPDFText shells out to pdftotext (poppler-utils), the most reliable
// text extractor available on the deploy image.
func extractPDFText(path string) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not available: %v", err)
	}

	outFile := path + ".txt"
	defer os.Remove(outFile)

	cmd := exec.Command("pdftotext", "-layout", path, outFile)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %v", err)
	}

	content, err := os.ReadFile(outFile)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted text: %v", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return "", fmt.Errorf("no text layer in PDF")
	}
	return string(content), nil
}
