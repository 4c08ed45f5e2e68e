package services

import (
	"fmt"
	"log"
	"time"

	"github.com/playwright-community/playwright-go"

	"autoapply/config"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

// BrowserService owns the long-lived Chromium process. Each run gets its own
// isolated browser context and page; contexts share no cookies, storage, or
// DOM handles.
type BrowserService struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	headless bool
}

func NewBrowserService(cfg config.AutomationConfig) (*BrowserService, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &BrowserService{
		pw:       pw,
		browser:  browser,
		headless: cfg.Headless,
	}, nil
}

func (s *BrowserService) Close() error {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			return err
		}
	}
	if s.pw != nil {
		return s.pw.Stop()
	}
	return nil
}

// OpenPage creates a fresh context and page and navigates to the job URL.
// The cleanup function is always non-nil and safe to defer, including when
// navigation failed; the page is returned even on navigation errors so the
// caller can still attempt evidence capture.
func (s *BrowserService) OpenPage(jobURL string, timeout time.Duration) (playwright.Page, func(), error) {
	browserCtx, err := s.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(browserUserAgent),
	})
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to create browser context: %w", err)
	}

	cleanup := func() {
		if err := browserCtx.Close(); err != nil {
			log.Printf("Failed to close browser context: %v", err)
		}
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))

	resp, err := page.Goto(jobURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return page, cleanup, fmt.Errorf("navigation failed: %w", err)
	}
	if resp != nil && resp.Status() >= 400 {
		return page, cleanup, fmt.Errorf("navigation failed: job page returned HTTP %d", resp.Status())
	}

	return page, cleanup, nil
}
