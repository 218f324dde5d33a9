// Package rules evaluates a course selection against a catalog: the direction
// gate, per-flow requirement progress and global compliance caps.
//
// Every evaluator is a pure function of a catalog snapshot and the caller's
// selection. Engine composes them and memoises status reports.
package rules

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/logging"
	"github.com/msageha/flowguide/internal/model"
)

// Report is the status-mode result. Reports may be shared between callers
// through the cache and must be treated as read-only.
type Report struct {
	Direction       model.Direction `json:"direction,omitempty"`
	Gate            DirectionResult `json:"gate"`
	Combination     string          `json:"combination,omitempty"`
	Statuses        []RuleStatus    `json:"statuses"`
	Warnings        []string        `json:"warnings"`
	Complete        bool            `json:"complete"`
	Credits         CreditSummary   `json:"credits"`
	CatalogChecksum string          `json:"catalog_checksum"`
	CacheHit        bool            `json:"cache_hit"`
	Duration        time.Duration   `json:"duration_ns"`
}

// CreditSummary totals the recognised selected courses.
type CreditSummary struct {
	TotalECTS float64        `json:"total_ects"`
	Semesters []SemesterLoad `json:"semesters"`
	// Unknown lists selected ids the catalog does not contain.
	Unknown []string `json:"unknown,omitempty"`
}

type SemesterLoad struct {
	Semester int     `json:"semester"`
	Courses  int     `json:"courses"`
	ECTS     float64 `json:"ects"`
}

// Engine composes the evaluators over one catalog snapshot.
type Engine struct {
	mu           sync.RWMutex
	catalog      *catalog.Catalog
	cache        *ResultCache
	singleflight *singleflight.Group
	logger       *logging.Logger
	metrics      *Metrics
}

// NewEngine returns ErrNoCatalog when cat is nil. A disabled cache config
// evaluates every call afresh. logger and metrics may be nil.
func NewEngine(cat *catalog.Catalog, cfg model.CacheConfig, logger *logging.Logger, metrics *Metrics) (*Engine, error) {
	if cat == nil {
		return nil, catalog.ErrNoCatalog
	}
	e := &Engine{
		catalog:      cat,
		singleflight: &singleflight.Group{},
		logger:       logger.With("rules"),
		metrics:      metrics,
	}
	if cfg.Enabled {
		e.cache = NewResultCache(cfg.MaxEntries, cfg.TTL())
	}
	return e, nil
}

func (e *Engine) Catalog() *catalog.Catalog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog
}

// SetCatalog swaps in a new snapshot and drops cached reports.
func (e *Engine) SetCatalog(cat *catalog.Catalog) error {
	if cat == nil {
		return catalog.ErrNoCatalog
	}
	e.mu.Lock()
	e.catalog = cat
	e.mu.Unlock()

	if e.cache != nil {
		e.cache.Clear()
		e.metrics.observeCache(e.cache.Stats())
	}
	e.logger.Infof("catalog replaced checksum=%.12s", cat.Checksum())
	return nil
}

// Gate is the wizard-step check: direction and flow intensities only.
func (e *Engine) Gate(sel model.Selection) DirectionResult {
	result := ValidateDirection(e.Catalog(), sel.Direction, sel.Flows)
	e.metrics.observeGate(result.Valid)
	return result
}

// Status evaluates every active flow rule and every global constraint.
// It only fails when ctx is already done.
func (e *Engine) Status(ctx context.Context, sel model.Selection) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cat := e.Catalog()
	key := fingerprint(cat, sel)

	if e.cache != nil {
		if cached := e.cache.Get(key); cached != nil {
			cached.CacheHit = true
			e.metrics.observeCacheHit()
			e.logger.Debugf("cache hit key=%.12s", key)
			return cached, nil
		}
	}

	result, err, _ := e.singleflight.Do(key, func() (interface{}, error) {
		return e.evaluateUncached(cat, sel), nil
	})
	if err != nil {
		return nil, err
	}
	report := result.(*Report)

	if e.cache != nil {
		e.cache.Set(key, report)
		e.metrics.observeCache(e.cache.Stats())
	}

	out := *report
	return &out, nil
}

func (e *Engine) evaluateUncached(cat *catalog.Catalog, sel model.Selection) *Report {
	start := time.Now()
	selected := sel.CourseSet()

	report := &Report{
		Direction:       sel.Direction,
		Gate:            ValidateDirection(cat, sel.Direction, sel.Flows),
		Statuses:        []RuleStatus{},
		CatalogChecksum: cat.Checksum(),
	}
	if comb, ok := MatchCombination(cat, sel.Direction, sel.Flows); ok {
		report.Combination = comb.ID
	}

	for _, code := range sel.Flows.Active() {
		report.Statuses = append(report.Statuses,
			EvaluateFlowRule(cat, code, sel.Flows.Get(code), sel.Direction, selected)...)
	}

	report.Warnings = CheckGlobalConstraints(cat, selected, sel.Direction, sel.Flows)
	if report.Warnings == nil {
		report.Warnings = []string{}
	}
	report.Complete = len(report.Warnings) == 0
	report.Credits = summarizeCredits(cat, selected)
	report.Duration = time.Since(start)

	e.metrics.observeStatus(report, report.Duration)
	e.logger.Debugf("evaluated direction=%s flows=%q courses=%d statuses=%d warnings=%d",
		sel.Direction, sel.Flows.Canonical(), len(selected), len(report.Statuses), len(report.Warnings))

	return report
}

func summarizeCredits(cat *catalog.Catalog, selected model.CourseSet) CreditSummary {
	policy := cat.Policy()
	loads := make(map[int]*SemesterLoad, len(policy.TrackedSemesters))
	summary := CreditSummary{Semesters: make([]SemesterLoad, 0, len(policy.TrackedSemesters))}

	for _, id := range selected.Sorted() {
		course, ok := cat.Course(id)
		if !ok {
			summary.Unknown = append(summary.Unknown, id)
			continue
		}
		summary.TotalECTS += course.ECTS
		l, ok := loads[course.Semester]
		if !ok {
			l = &SemesterLoad{Semester: course.Semester}
			loads[course.Semester] = l
		}
		l.Courses++
		l.ECTS += course.ECTS
	}

	for _, sem := range policy.TrackedSemesters {
		if l, ok := loads[sem]; ok {
			summary.Semesters = append(summary.Semesters, *l)
			continue
		}
		summary.Semesters = append(summary.Semesters, SemesterLoad{Semester: sem})
	}
	return summary
}

// fingerprint keys a selection against a catalog snapshot. Course order and
// duplicate ids do not change it.
func fingerprint(cat *catalog.Catalog, sel model.Selection) string {
	canonical := fmt.Sprintf("%s|%s|%s|%s",
		cat.Checksum(), sel.Direction, sel.Flows.Canonical(), strings.Join(sel.CourseSet().Sorted(), ","))
	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:])
}
