// Package capture provides the render and diff capabilities: screenshotting
// UI surfaces and comparing them against baselines. Both are expressed as
// small interfaces so an external renderer or comparator can be substituted.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// Surface identifies one named UI surface to render and compare.
type Surface struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Renderer captures a screenshot of a UI surface. Implementations must be
// idempotent: repeated calls for the same surface produce comparable images.
type Renderer interface {
	// Render writes a full-page screenshot of the surface to outPath and
	// returns outPath. The caller supplies an explicit output path; no
	// component guesses artifact locations.
	Render(ctx context.Context, surfaceURL, outPath string) (string, error)
}

// disableAnimationsCSS freezes transitions and animations so repeated
// renders of the same surface are pixel-comparable.
const disableAnimationsCSS = `
*, *::before, *::after {
  animation: none !important;
  transition: none !important;
  caret-color: transparent !important;
}
`

// BrowserRenderer renders surfaces in a headless browser.
// Requires Chrome/Chromium to be installed on the system.
type BrowserRenderer struct {
	Timeout        time.Duration
	ViewportWidth  int64
	ViewportHeight int64
	Verbose        bool
}

// NewBrowserRenderer creates a renderer with a fixed default viewport.
func NewBrowserRenderer() *BrowserRenderer {
	return &BrowserRenderer{
		Timeout:        30 * time.Second,
		ViewportWidth:  1280,
		ViewportHeight: 800,
	}
}

// Render navigates to the surface and captures a full-page screenshot.
func (r *BrowserRenderer) Render(ctx context.Context, surfaceURL, outPath string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if r.Verbose {
		fmt.Printf("[RENDER] Capturing %s -> %s\n", surfaceURL, outPath)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("hide-scrollbars", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(r.ViewportWidth, r.ViewportHeight),
		chromedp.Navigate(surfaceURL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(injectCSSJS(disableAnimationsCSS), nil),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return "", fmt.Errorf("render failed for %s: %w", surfaceURL, err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(outPath, buf, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot %s: %w", outPath, err)
	}

	return outPath, nil
}

// injectCSSJS returns a script that appends a style element with the given CSS.
func injectCSSJS(css string) string {
	return fmt.Sprintf(`(() => {
  const style = document.createElement('style');
  style.textContent = %q;
  document.head.appendChild(style);
})()`, css)
}
