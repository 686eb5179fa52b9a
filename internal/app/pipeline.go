package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/donorflow/internal/domain/clean"
	"github.com/okian/donorflow/internal/domain/csvparse"
	"github.com/okian/donorflow/internal/domain/donations"
	"github.com/okian/donorflow/internal/domain/geo"
	"github.com/okian/donorflow/internal/domain/join"
	"github.com/okian/donorflow/internal/domain/model"
	"github.com/okian/donorflow/internal/domain/roi"
	"github.com/okian/donorflow/pkg/logger"
	"github.com/okian/donorflow/pkg/metrics"
)

// Run executes the full pipeline for one request and returns its result.
// Runs share no state besides metrics; Run is safe for concurrent use.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := s.run(ctx, req)
	if err != nil {
		metrics.RecordRun(metrics.OutcomeFailed)
		s.logger.Warn(ctx, "pipeline run failed", logger.Error(err))
		return nil, err
	}
	res.Elapsed = time.Since(start)
	metrics.RecordRun(metrics.OutcomeSucceeded)
	s.logger.Info(ctx, "pipeline run finished",
		logger.Int("donors", res.Stats.Donors),
		logger.Float64("total_amount", res.Stats.TotalAmount),
		logger.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, req Request) (*Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	key, mode, err := s.joinParams(req)
	if err != nil {
		return nil, err
	}
	cost := req.AcquisitionCost
	if cost == 0 {
		cost = s.settings.AcquisitionCost
	}

	res := &Result{
		Parse: make(map[string]csvparse.Diagnostics, 3),
		Clean: make(map[string]clean.Report, 3),
	}
	withCodes := strings.TrimSpace(req.ActivistCodes) != ""

	var contacts, codes, gifts model.Dataset
	s.stage(ctx, StageParse, func() {
		contacts = s.parse(ctx, res, SourceContacts, req.Contacts)
		if withCodes {
			codes = s.parse(ctx, res, SourceActivistCodes, req.ActivistCodes)
		}
		gifts = s.parse(ctx, res, SourceDonations, req.Donations)
	})

	// Both join sides are cleaned first so keys compare in normalized form.
	s.stage(ctx, StageClean, func() {
		var rep clean.Report
		contacts, rep = clean.Clean(contacts, s.settings.Clean)
		res.Clean[SourceContacts] = rep
		if withCodes {
			codes, rep = clean.Clean(codes, s.settings.Clean)
			res.Clean[SourceActivistCodes] = rep
		}
		gifts, rep = clean.Clean(gifts, s.settings.donationClean())
		res.Clean[SourceDonations] = rep
		for _, r := range res.Clean {
			metrics.RecordImputed(imputed(r))
		}
	})

	joined := contacts
	if withCodes {
		s.stage(ctx, StageJoin, func() {
			var st join.Stats
			joined, st = join.Join(contacts, codes, key, mode)
			res.Join = &st
			metrics.RecordJoin(st.Matched, st.UnmatchedLeft, st.RightOnly)
			if st.MissingKeyLeft+st.MissingKeyRight > 0 {
				s.logger.Warn(ctx, "records without join key",
					logger.String("key", key),
					logger.Int("left", st.MissingKeyLeft),
					logger.Int("right", st.MissingKeyRight),
				)
			}
		})
	}
	res.JoinedRecords = joined.Len()
	res.Records = joined.Head(s.settings.PreviewRows)

	var agg donations.Result
	s.stage(ctx, StageAggregate, func() {
		agg, err = donations.Aggregate(joined, gifts, s.settings.MatchField, s.settings.Donations)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	res.Summaries, res.Stats, res.DonationDiagnostics = agg.Summaries, agg.Stats, agg.Diagnostics
	metrics.RecordDonors(len(agg.Summaries))

	s.stage(ctx, StageSimulate, func() {
		res.ROI, err = roi.Simulate(agg.Summaries, cost)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.stage(ctx, StageGeo, func() {
		res.Geo = s.resolve(joined, agg.Summaries)
		metrics.RecordUnresolvedPostalCodes(len(res.Geo.Unresolved))
		if len(res.Geo.Unresolved) > 0 {
			s.logger.Debug(ctx, "unresolved postal codes", logger.Int("count", len(res.Geo.Unresolved)))
		}
	})
	return res, nil
}

func (s *Service) joinParams(req Request) (string, join.Mode, error) {
	key := s.settings.JoinKey
	if k := strings.TrimSpace(req.JoinKey); k != "" {
		key = k
	}
	mode := s.settings.JoinMode
	if req.JoinMode != "" {
		m, err := join.ParseMode(req.JoinMode)
		if err != nil {
			return "", "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		mode = m
	}
	return key, mode, nil
}

func (s *Service) parse(ctx context.Context, res *Result, source, text string) model.Dataset {
	ds, diag := csvparse.Parse(text)
	res.Parse[source] = diag
	metrics.RecordRows(source, diag.Rows, diag.Dropped)
	if diag.Dropped > 0 {
		s.logger.Warn(ctx, "dropped malformed rows",
			logger.String("source", source),
			logger.Int("dropped", diag.Dropped),
			logger.Any("lines", diag.DroppedLines),
		)
	}
	return ds
}

// resolve looks up coordinates for summarized donors only.
func (s *Service) resolve(joined model.Dataset, summaries []donations.Summary) GeoResult {
	out := GeoResult{Coordinates: map[string]geo.Coordinate{}, Unresolved: []string{}}
	if s.settings.Geo == nil || s.settings.PostalCodeField == "" || len(summaries) == 0 {
		return out
	}
	all := geo.PostalCodes(joined, s.settings.identifierField(), s.settings.PostalCodeField)
	codes := make(map[string]string, len(summaries))
	for _, sm := range summaries {
		if c, ok := all[sm.Identifier]; ok {
			codes[sm.Identifier] = c
		}
	}
	out.Coordinates, out.Unresolved = s.settings.Geo.Resolve(codes)
	return out
}

func (s *Service) stage(ctx context.Context, name string, fn func()) {
	start := time.Now()
	fn()
	d := time.Since(start)
	metrics.ObserveStage(name, d)
	s.logger.Debug(ctx, "stage done", logger.String("stage", name), logger.Duration("elapsed", d))
}

func imputed(r clean.Report) int {
	n := 0
	for _, c := range r.Imputed {
		n += c
	}
	return n
}
