// Package uimap associates rendered UI elements with source code locations
// through the source index.
package uimap

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// RawElement is one rendered element as probed from the live page.
type RawElement struct {
	Selector string   `json:"selector"`
	Tag      string   `json:"tag"`
	ID       string   `json:"id"`
	Classes  []string `json:"classes"`
	Text     string   `json:"text"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
}

// ElementSource enumerates the rendered elements of a UI surface.
// Implementations probe a live page; tests inject a fixed list.
type ElementSource interface {
	Elements(ctx context.Context, surfaceURL string) ([]RawElement, error)
}

// elementProbeJS collects every visible element carrying an id or class,
// with its best selector and bounding box in page coordinates.
const elementProbeJS = `
(() => {
  const out = [];
  const nodes = document.querySelectorAll('*');
  for (const el of nodes) {
    const id = el.id || '';
    const classes = Array.from(el.classList || []);
    if (!id && classes.length === 0) continue;
    const rect = el.getBoundingClientRect();
    if (rect.width <= 0 || rect.height <= 0) continue;
    let selector = el.tagName.toLowerCase();
    if (id) selector = '#' + id;
    else if (classes.length > 0) selector = '.' + classes[0];
    out.push({
      selector: selector,
      tag: el.tagName.toLowerCase(),
      id: id,
      classes: classes,
      text: (el.innerText || '').slice(0, 120),
      x: rect.left + window.scrollX,
      y: rect.top + window.scrollY,
      width: rect.width,
      height: rect.height,
    });
  }
  return out;
})()
`

// BrowserSource probes a page with a headless browser.
// Requires Chrome/Chromium to be installed on the system.
type BrowserSource struct {
	Timeout time.Duration
	Verbose bool
}

// NewBrowserSource creates a BrowserSource with a default timeout.
func NewBrowserSource() *BrowserSource {
	return &BrowserSource{Timeout: 30 * time.Second}
}

// Elements navigates to the surface URL and returns the probed elements.
func (s *BrowserSource) Elements(ctx context.Context, surfaceURL string) ([]RawElement, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var elements []RawElement
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(surfaceURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Evaluate(elementProbeJS, &elements),
	)
	if err != nil {
		return nil, fmt.Errorf("element probe failed for %s: %w", surfaceURL, err)
	}

	if s.Verbose {
		fmt.Printf("[UIMAP] Probed %d elements from %s\n", len(elements), surfaceURL)
	}
	return elements, nil
}
