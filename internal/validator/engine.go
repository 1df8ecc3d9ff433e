// Package validator applies the requirement matrix to pooled files and
// produces one evaluation result per group.
package validator

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"docstracker/internal/domain"
)

// DefaultWorkers bounds EvaluateAll when no worker count is given.
const DefaultWorkers = 6

// Engine evaluates groups against requirement rows.
type Engine struct {
	registry *Registry
	log      logrus.FieldLogger
}

// NewEngine creates a new evaluation engine.
func NewEngine(registry *Registry, log logrus.FieldLogger) *Engine {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{registry: registry, log: log.WithField("component", "validator")}
}

// Evaluate applies row to the files pooled in g. For every slot: a
// not-applicable requirement is Null; no candidate is No; candidates that all
// fail a check are Mismatch; otherwise Yes, tagged Duplicate:<slot> when more
// than one candidate is valid. Any UNKNOWN file adds OrphanFiles once.
func (e *Engine) Evaluate(g *domain.Group, row domain.RequirementRow) domain.EvaluationResult {
	res := domain.EvaluationResult{
		Key:        g.Key,
		Invoices:   append([]string(nil), g.Invoices...),
		Type:       g.Type,
		Bill:       g.Bill,
		Missing:    []domain.DocType{},
		Mismatched: []domain.DocType{},
		Issues:     []string{},
	}

	candidates := make(map[domain.DocType][]int, domain.SlotCount)
	orphans := false
	for i := range g.Files {
		d := g.Files[i].DocType
		if d == domain.DocUnknown {
			orphans = true
			continue
		}
		candidates[d] = append(candidates[d], i)
	}

	for i, d := range domain.Slots {
		req := row.Slots[i]
		if req.Kind == domain.NotApplicable {
			res.Statuses[i] = domain.StatusNull
			continue
		}
		pool := candidates[d]
		if len(pool) == 0 {
			res.Statuses[i] = domain.StatusNo
			res.Missing = append(res.Missing, d)
			continue
		}

		checks := e.applicable(d, req)
		valid := 0
		for _, idx := range pool {
			if e.candidateValid(g, &g.Files[idx], checks) {
				valid++
			}
		}
		switch {
		case valid == 0:
			res.Statuses[i] = domain.StatusMismatch
			res.Mismatched = append(res.Mismatched, d)
		case valid > 1:
			res.Statuses[i] = domain.StatusYes
			res.Issues = append(res.Issues, domain.IssueDuplicatePrefix+string(d))
		default:
			res.Statuses[i] = domain.StatusYes
		}
	}

	if orphans {
		res.Issues = append(res.Issues, domain.IssueOrphanFiles)
	}
	return res
}

// EvaluateGroup resolves the requirement row for g from matrix and evaluates
// it. A declaration type missing from the matrix falls back to the fallback
// row and is tagged UnknownCDsType.
func (e *Engine) EvaluateGroup(g *domain.Group, matrix *domain.RequirementMatrix) domain.EvaluationResult {
	row, known := matrix.Resolve(g.Type)
	res := e.Evaluate(g, row)
	if !known {
		res.Issues = append(res.Issues, domain.IssueUnknownCDsType)
	}
	return res
}

// EvaluateAll evaluates groups concurrently with at most workers in flight.
// Results keep group order. A group whose evaluation panics is omitted and
// reported as an EvaluationFailure diagnostic. Cancelling ctx stops new
// groups from starting.
func (e *Engine) EvaluateAll(ctx context.Context, groups []domain.Group, matrix domain.RequirementMatrix, workers int) ([]domain.EvaluationResult, []domain.Diagnostic) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	type outcome struct {
		result *domain.EvaluationResult
		diag   *domain.Diagnostic
	}
	slots := make([]outcome, len(groups))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range groups {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					e.log.WithFields(logrus.Fields{
						"group": groups[i].Key,
						"panic": r,
						"stack": string(debug.Stack()),
					}).Error("validator: evaluation failed")
					slots[i].diag = &domain.Diagnostic{
						Kind:    domain.DiagEvaluationFailure,
						Path:    groups[i].Key,
						Message: fmt.Sprintf("evaluation failed: %v", r),
					}
				}
			}()
			res := e.EvaluateGroup(&groups[i], &matrix)
			slots[i].result = &res
			return nil
		})
	}
	_ = g.Wait()

	results := make([]domain.EvaluationResult, 0, len(groups))
	var diags []domain.Diagnostic
	for _, s := range slots {
		if s.result != nil {
			results = append(results, *s.result)
		}
		if s.diag != nil {
			diags = append(diags, *s.diag)
		}
	}
	return results, diags
}

func (e *Engine) applicable(d domain.DocType, req domain.Requirement) []Validator {
	var out []Validator
	for _, v := range e.registry.All() {
		if v.Applies(d, req) {
			out = append(out, v)
		}
	}
	return out
}

func (e *Engine) candidateValid(g *domain.Group, f *domain.FileEntry, checks []Validator) bool {
	for _, v := range checks {
		if r := v.Validate(g, f); !r.Passed {
			e.log.WithFields(logrus.Fields{
				"group": g.Key,
				"rule":  v.RuleKey(),
			}).Debug(r.Message)
			return false
		}
	}
	return true
}
