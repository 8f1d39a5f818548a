// Package pipeline orchestrates a review session: page contexts are built
// against the rule catalog, extraction fans out across a worker pool, and the
// per-page findings are aggregated into the final review.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/planproof/planproof/internal/aggregate"
	"github.com/planproof/planproof/internal/cache"
	"github.com/planproof/planproof/internal/catalog"
	"github.com/planproof/planproof/internal/extract"
	"github.com/planproof/planproof/internal/llm"
	"github.com/planproof/planproof/internal/model"
	"github.com/planproof/planproof/internal/quality"
	"github.com/planproof/planproof/internal/review"
	"github.com/planproof/planproof/internal/worker"
)

// ReviewRequest describes one review session.
type ReviewRequest struct {
	ProjectName string
	Ruleset     model.Ruleset
	ScaleNote   string
	Reviewer    string
	Pages       []review.PageInput
}

// Session holds the collaborators for running reviews.
type Session struct {
	catalog   *catalog.Catalog
	extractor *extract.Extractor
	workers   int
}

// NewSession wires a session from configuration: catalog, provider (rate
// limited), response cache, and extractor.
func NewSession(cfg *model.Config) (*Session, error) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("load rule catalog: %w", err)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create inference provider: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("no inference provider configured")
	}
	if cfg.LLM.RatePerSecond > 0 {
		provider = llm.NewThrottledProvider(provider, worker.NewLimiter(cfg.LLM.RatePerSecond, cfg.LLM.RateBurst))
	}

	var responseCache extract.ResponseCache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			responseCache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			responseCache = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
		}
	}

	extractor, err := extract.NewExtractor(provider, extract.Options{
		SchemaRetries: cfg.LLM.SchemaRetries,
		PageTimeout:   time.Duration(cfg.LLM.Timeout) * time.Second,
		Cache:         responseCache,
		CacheTTL:      cfg.Cache.TTL,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		catalog:   cat,
		extractor: extractor,
		workers:   cfg.Concurrency.ExtractWorkers,
	}, nil
}

// NewSessionWith wires a session from explicit collaborators, used by tests
// and callers that manage their own provider setup.
func NewSessionWith(cat *catalog.Catalog, extractor *extract.Extractor, workers int) *Session {
	return &Session{catalog: cat, extractor: extractor, workers: workers}
}

// Run reviews every requested page and assembles the result.
//
// Context construction is fail-fast: an invalid page or an under-configured
// catalog aborts before any inference is spent. During extraction a page
// whose inference is unavailable becomes a page error rather than failing the
// session; only when every page fails, or the session context is cancelled,
// does Run return an error.
func (s *Session) Run(ctx context.Context, req ReviewRequest) (*model.Review, error) {
	if _, ok := model.ParseRuleset(string(req.Ruleset)); !ok {
		return nil, fmt.Errorf("unknown ruleset %q", req.Ruleset)
	}
	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("no pages to review")
	}

	contexts := make([]model.PageContext, 0, len(req.Pages))
	seen := make(map[int]struct{}, len(req.Pages))
	for _, in := range req.Pages {
		if _, dup := seen[in.PageIndex]; dup {
			return nil, fmt.Errorf("page %d requested twice", in.PageIndex)
		}
		seen[in.PageIndex] = struct{}{}

		pc, err := review.BuildContext(s.catalog, req.Ruleset, in)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, pc)
	}

	pool := worker.NewPool(ctx, s.workers, s.extractor.Extract)
	pool.Start()
	for _, pc := range contexts {
		pool.Submit(pc)
	}
	results := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		pageFindings []aggregate.PageFindings
		pageErrors   []model.PageError
		countByPage  = make(map[int]int, len(results))
	)
	for _, res := range results {
		if res.Err != nil {
			if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
				return nil, res.Err
			}
			pageErrors = append(pageErrors, model.PageError{
				PageIndex: res.PageIndex,
				Message:   reviewErrorMessage(res.Err),
			})
			continue
		}
		pageFindings = append(pageFindings, aggregate.PageFindings{
			PageIndex: res.PageIndex,
			Findings:  res.Findings,
		})
		countByPage[res.PageIndex] = len(res.Findings)
	}

	if len(pageFindings) == 0 {
		return nil, fmt.Errorf("review failed: none of the %d pages could be reviewed", len(req.Pages))
	}

	grouped, err := aggregate.Aggregate(pageFindings)
	if err != nil {
		return nil, fmt.Errorf("aggregate findings: %w", err)
	}

	failed := make(map[int]struct{}, len(pageErrors))
	for _, pe := range pageErrors {
		failed[pe.PageIndex] = struct{}{}
	}

	var pages []model.PageSummary
	for _, pc := range contexts {
		if _, skip := failed[pc.PageIndex]; skip {
			continue
		}
		pages = append(pages, model.PageSummary{
			PageIndex:    pc.PageIndex,
			PageType:     pc.PageType,
			SheetLabel:   pc.SheetLabel,
			HasText:      pc.ExtractedText != "",
			FindingCount: countByPage[pc.PageIndex],
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageIndex < pages[j].PageIndex })
	sort.Slice(pageErrors, func(i, j int) bool { return pageErrors[i].PageIndex < pageErrors[j].PageIndex })

	result := &model.Review{
		ID:          uuid.NewString(),
		ProjectName: req.ProjectName,
		Ruleset:     req.Ruleset,
		ScaleNote:   req.ScaleNote,
		Reviewer:    req.Reviewer,
		ReviewedAt:  time.Now().UTC(),
		Pages:       pages,
		Findings:    grouped,
		Errors:      pageErrors,
	}

	metrics := quality.Analyze(result)
	result.Quality = &metrics

	return result, nil
}

// reviewErrorMessage keeps page error messages reviewer-facing.
func reviewErrorMessage(err error) string {
	if errors.Is(err, llm.ErrUnavailable) {
		return "inference unavailable; review this page manually"
	}
	return err.Error()
}
