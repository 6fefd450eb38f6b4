package validation

import (
	"context"
	"log/slog"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
)

// BatchRunner sequences ReferenceValidator, AuthValidator and
// RulesValidator over a whole submission batch, aggregating into one
// ValidatorResult per ChangeRequest.
//
// New maintainers are evaluated in two passes. The first pass runs every
// mntner CREATE request with nothing pre-approved, so each one is judged
// purely on its own authentication (override, or an administrator
// requirement that always fails without one). Only the maintainers that
// actually passed that pass are then pre-approved for the second pass,
// which runs every other request in the batch. This keeps a sibling
// object's "mnt-by: NEW-MNT" from being honoured when NEW-MNT's own
// creation failed its authentication.
type BatchRunner struct {
	reference *ReferenceValidator
	auth      *AuthValidator
	rules     *RulesValidator
	logger    *slog.Logger
}

// NewBatchRunner constructs a BatchRunner over the three validators.
func NewBatchRunner(reference *ReferenceValidator, auth *AuthValidator, rules *RulesValidator, logger *slog.Logger) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchRunner{reference: reference, auth: auth, rules: rules, logger: logger}
}

// RequestResult pairs a ChangeRequest with its aggregate ValidatorResult.
type RequestResult struct {
	Request rpsl.ChangeRequest
	Result  *ValidatorResult
}

// Run validates every request in requests and returns one RequestResult
// per request, in the deterministic maintainer-first order described
// above (not the caller's submission order).
func (br *BatchRunner) Run(ctx context.Context, requests []rpsl.ChangeRequest, creds rpsl.Credentials) ([]RequestResult, error) {
	br.reference.Preload(requests)

	ordered := orderMaintainersFirst(requests)

	isNewMntner := make([]bool, len(ordered))
	for i, req := range ordered {
		isNewMntner[i] = req.Type != rpsl.Delete && rpsl.IsMntnerClass(req.New.Class()) && req.Current == nil
	}

	results := make([]RequestResult, len(ordered))

	br.auth.PreApprove(nil)
	var approved []rpsl.MntnerKey
	for i, req := range ordered {
		if !isNewMntner[i] {
			continue
		}
		result, err := br.runOne(ctx, req, creds)
		if err != nil {
			return nil, err
		}
		results[i] = RequestResult{Request: req, Result: result}
		if result.IsValid() {
			approved = append(approved, rpsl.MntnerKey{PK: req.New.PK(), Source: req.New.Source()})
		}
	}

	br.auth.PreApprove(approved)
	for i, req := range ordered {
		if isNewMntner[i] {
			continue
		}
		result, err := br.runOne(ctx, req, creds)
		if err != nil {
			return nil, err
		}
		results[i] = RequestResult{Request: req, Result: result}
	}

	return results, nil
}

func (br *BatchRunner) runOne(ctx context.Context, req rpsl.ChangeRequest, creds rpsl.Credentials) (*ValidatorResult, error) {
	result := NewValidatorResult()

	toOthers, err := br.reference.CheckReferencesToOthers(ctx, req.New)
	if err != nil {
		return nil, err
	}
	result.Merge(toOthers)

	if req.Type == rpsl.Delete {
		fromOthers, err := br.reference.CheckReferencesFromOthers(ctx, req.New)
		if err != nil {
			return nil, err
		}
		result.Merge(fromOthers)
	}

	authResult, err := br.auth.ProcessAuth(ctx, creds, req.New, req.Current)
	if err != nil {
		return nil, err
	}
	result.Merge(authResult)

	rulesResult, err := br.rules.Check(ctx, req)
	if err != nil {
		return nil, err
	}
	result.Merge(rulesResult)

	return result, nil
}

// orderMaintainersFirst returns requests with every mntner-class request
// moved ahead of non-mntner requests, preserving relative order within
// each group.
func orderMaintainersFirst(requests []rpsl.ChangeRequest) []rpsl.ChangeRequest {
	ordered := make([]rpsl.ChangeRequest, 0, len(requests))
	var rest []rpsl.ChangeRequest
	for _, req := range requests {
		if rpsl.IsMntnerClass(req.New.Class()) {
			ordered = append(ordered, req)
		} else {
			rest = append(rest, req)
		}
	}
	return append(ordered, rest...)
}
