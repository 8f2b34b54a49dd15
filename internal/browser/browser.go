// Package browser runs features against live pages in a Playwright-driven
// Chromium.
package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/clintrovert/prbranches/internal/feature"
)

const appendScript = `(el, html) => el.insertAdjacentHTML("beforeend", html)`

// Session owns a Playwright driver, a browser and a single page
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	logger  *zap.Logger
}

// Launch starts Chromium and opens a blank page
func Launch(headless bool, logger *zap.Logger) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     []string{"--no-sandbox", "--disable-gpu"},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	logger.Info("launched browser", zap.Bool("headless", headless))

	return &Session{
		pw:      pw,
		browser: browser,
		page:    page,
		logger:  logger,
	}, nil
}

// Open navigates the page
func (s *Session) Open(url string) error {
	if _, err := s.page.Goto(url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

// WaitForLoad blocks until the current document has fired its load event
func (s *Session) WaitForLoad() error {
	if err := s.page.WaitForLoadState(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	return nil
}

// URL returns the page's current URL
func (s *Session) URL() string {
	return s.page.URL()
}

// Page returns the live page as a feature page
func (s *Session) Page() feature.Page {
	return &Page{page: s.page}
}

// Navigations reports the URL of each main frame navigation until ctx ends
func (s *Session) Navigations(ctx context.Context) <-chan string {
	navigations := make(chan string, 8)
	main := s.page.MainFrame()
	s.page.OnFrameNavigated(func(frame playwright.Frame) {
		if frame != main {
			return
		}
		select {
		case navigations <- frame.URL():
		case <-ctx.Done():
		default:
			s.logger.Warn("dropped navigation", zap.String("url", frame.URL()))
		}
	})
	return navigations
}

// Close shuts down the browser and the driver
func (s *Session) Close() error {
	if err := s.browser.Close(); err != nil {
		s.pw.Stop()
		return fmt.Errorf("failed to close browser: %w", err)
	}
	if err := s.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// Page adapts a Playwright page to feature.Page
type Page struct {
	page playwright.Page
}

// QueryAll returns every element matching selector in document order
func (p *Page) QueryAll(_ context.Context, selector string) ([]feature.Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return wrapAll(handles)
}

func wrapAll(handles []playwright.ElementHandle) ([]feature.Element, error) {
	elements := make([]feature.Element, 0, len(handles))
	for _, h := range handles {
		e, err := wrap(h)
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	return elements, nil
}

func wrap(h playwright.ElementHandle) (*element, error) {
	id, err := h.GetAttribute("id")
	if err != nil {
		return nil, fmt.Errorf("failed to read id: %w", err)
	}
	return &element{handle: h, id: id}, nil
}

type element struct {
	handle playwright.ElementHandle
	id     string
}

func (e *element) ID() string {
	return e.id
}

func (e *element) Query(_ context.Context, selector string) (feature.Element, error) {
	h, err := e.handle.QuerySelector(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	if h == nil {
		return nil, nil
	}
	el, err := wrap(h)
	if err != nil {
		return nil, err
	}
	return el, nil
}

func (e *element) AppendHTML(_ context.Context, fragment string) error {
	if _, err := e.handle.Evaluate(appendScript, fragment); err != nil {
		return fmt.Errorf("failed to append html: %w", err)
	}
	return nil
}
