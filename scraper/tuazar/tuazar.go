package tuazar

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"animalitos-stats/config"
	"animalitos-stats/models"
	"animalitos-stats/utils"
)

// headerDateLayout is how the results table labels its first column.
const headerDateLayout = "02/01/2006"

// DaysPerWeek is the number of daily columns on a weekly results page.
const DaysPerWeek = 7

// WeekRow is one table row of a weekly results page: the draw hour and the
// animal drawn on each day of the week, Monday first.
type WeekRow struct {
	Hour    string   `json:"hour"`
	Animals []string `json:"animals"`
}

type weekPage struct {
	First string    `json:"first"`
	Rows  []WeekRow `json:"rows"`
}

// Scraper collects draw results from the weekly pages of tuazar.com.
// Each Scrape call starts from an empty result set.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig
}

// weekFetcher loads the draws of one weekly page.
type weekFetcher func(ctx context.Context, url string) ([]*models.RawDraw, error)

func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.Scrape.MaxConcurrency, cfg.Scrape.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.Scrape.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Scrape visits every week between the configured start and end dates.
// Weeks that keep failing are logged and left out; their errors are joined
// into the returned error next to whatever draws were collected.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.RawDraw, error) {
	from, to, err := s.cfg.ScrapeWindow()
	if err != nil {
		return nil, err
	}
	urls := WeekURLs(s.cfg.Scrape.BaseURL, from, to)
	s.logger.Info("[tuazar] Starting scrape of %d weeks (%s → %s)",
		len(urls), from.Format(models.DateLayout), to.Format(models.DateLayout))

	chromeBin := s.cfg.Scrape.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	s.logger.Info("[tuazar] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// Start the browser once so the week tabs share it.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("tuazar: start browser: %w", err)
	}

	return s.collect(ctx, urls, func(ctx context.Context, url string) ([]*models.RawDraw, error) {
		return s.scrapeWeek(ctx, browserCtx, url)
	})
}

// collect fetches every distinct URL on the worker pool and gathers the draws.
// Failed weeks are logged and their errors joined into the result.
func (s *Scraper) collect(ctx context.Context, urls []string, fetch weekFetcher) ([]*models.RawDraw, error) {
	var (
		mu      sync.Mutex
		all     []*models.RawDraw
		visited = utils.NewKeySet()
	)

	for _, url := range urls {
		if !visited.Add(url) {
			continue
		}
		s.pool.Submit(ctx, func(ctx context.Context) error {
			draws, err := fetch(ctx, url)
			if err != nil {
				s.logger.Error("[tuazar] Week %s failed: %v", url, err)
				return err
			}

			mu.Lock()
			all = append(all, draws...)
			total := len(all)
			mu.Unlock()

			s.logger.Debug("[tuazar] %s: %d slots (%d so far)", url, len(draws), total)
			return nil
		})
	}
	err := s.pool.Wait()

	s.logger.Info("[tuazar] Scrape complete: %d raw slots from %d pages", len(all), visited.Size())
	return all, err
}

// scrapeWeek loads a weekly page in a fresh tab and expands its table.
func (s *Scraper) scrapeWeek(ctx, browserCtx context.Context, url string) ([]*models.RawDraw, error) {
	var page weekPage

	err := s.retry.Do(ctx, "week "+url, func(ctx context.Context) error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.cfg.Scrape.PageTimeout)
		defer cancelTimeout()

		// Stop the tab when the caller gives up.
		stop := context.AfterFunc(ctx, cancelTimeout)
		defer stop()

		err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("table tbody", chromedp.ByQuery),
			chromedp.Evaluate(`
				(function() {
					var table = document.querySelector('#main div.resultados table') ||
					            document.querySelector('div.resultados table') ||
					            document.querySelector('table');
					var result = { first: '', rows: [] };
					if (!table) return result;

					var time = table.querySelector('thead tr th time');
					if (time) result.first = time.textContent.trim();

					var rows = table.querySelectorAll('tbody tr');
					for (var i = 0; i < rows.length; i++) {
						var cells = rows[i].querySelectorAll('td');
						var animals = [];
						for (var j = 0; j < cells.length; j++) {
							// The cell shows the number and the name; the name is the last text node.
							var parts = cells[j].innerText.split('\n').map(function(t){return t.trim();}).filter(Boolean);
							animals.push(parts.length ? parts[parts.length - 1] : '-');
						}
						var label = rows[i].querySelector('th') || rows[i].firstElementChild;
						var hour = label ? label.innerText.split('\n')[0].trim() : '';
						if (label && label.tagName === 'TD') animals.shift();
						result.rows.push({ hour: hour, animals: animals });
					}
					return result;
				})()
			`, &page),
		)
		if err != nil {
			return fmt.Errorf("chromedp week extract: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	first, err := ParseWeekStart(page.First)
	if err != nil {
		return nil, fmt.Errorf("week %s: %w", url, err)
	}

	draws := ExpandWeek(first, page.Rows)
	now := time.Now()
	for _, d := range draws {
		d.SourceURL = url
		d.ScrapedAt = now
	}
	return draws, nil
}

// WeekURLs returns one page URL per week, starting at from and stepping seven
// days while the date is not after to.
func WeekURLs(baseURL string, from, to time.Time) []string {
	baseURL = strings.TrimRight(baseURL, "/")
	var urls []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, DaysPerWeek) {
		urls = append(urls, baseURL+"/"+d.Format("2006/01/02"))
	}
	return urls
}

// ParseWeekStart parses the date label of the first table column.
func ParseWeekStart(s string) (time.Time, error) {
	t, err := time.Parse(headerDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("first date %q: %w", s, err)
	}
	return t, nil
}

// ExpandWeek turns table rows into one RawDraw per cell, column i being the
// draw of first+i days. Cells beyond the seventh are ignored.
func ExpandWeek(first time.Time, rows []WeekRow) []*models.RawDraw {
	var draws []*models.RawDraw
	for _, row := range rows {
		for i, animal := range row.Animals {
			if i >= DaysPerWeek {
				break
			}
			draws = append(draws, &models.RawDraw{
				Animal: animal,
				Hour:   row.Hour,
				Date:   first.AddDate(0, 0, i).Format(models.DateLayout),
			})
		}
	}
	return draws
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
