package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/turforacle/internal/adapters/ledger"
	eventqueue "github.com/okian/turforacle/internal/adapters/mq/queue"
	"github.com/okian/turforacle/internal/adapters/repository"
	"github.com/okian/turforacle/internal/domain/canonical"
	"github.com/okian/turforacle/internal/domain/cascade"
	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/internal/domain/valuation"
	"github.com/okian/turforacle/pkg/logger"
	"github.com/okian/turforacle/pkg/metrics"
)

const reasonEvent = "event revaluation"

// Process implements the worker processor for queued events.
func (s *Service) Process(ctx context.Context, j eventqueue.Job) error { //nolint:gocritic // hugeParam
	out, err := s.run(ctx, j.Event, j.Commitment)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "event processed",
		logger.String("eventID", j.Event.EventID),
		logger.String("hash", out.Commitment.Hash.Hex()),
		logger.String("requestID", j.RequestID),
		logger.Int("valuations", len(out.Valuations)),
	)
	return nil
}

// run revalues the horse an already committed event is about, then its
// relatives, and writes every value with the event hash. When it fails
// before the first write the hash is released, so the event can be
// reported again once the cause is fixed.
func (s *Service) run(ctx context.Context, e model.Event, c canonical.Commitment) (out Outcome, err error) { //nolint:gocritic // hugeParam
	out = Outcome{Commitment: c}
	hash := c.Hash.Hex()
	written := false
	defer func() {
		if err != nil && !written {
			s.release(ctx, hash)
		}
	}()

	horse, err := s.reader.Horse(ctx, e.Horse.TokenID)
	if err != nil {
		metrics.RecordPipelineFailure("read")
		if errors.Is(err, repository.ErrNotFound) {
			return out, fmt.Errorf("%w: token %d", ErrUnknownHorse, e.Horse.TokenID)
		}
		return out, err
	}

	res, err := s.valuer.Value(ctx, valuation.Input{
		Horse: valuation.Features{
			TokenID:       horse.TokenID,
			Sex:           horse.Sex,
			PedigreeScore: horse.PedigreeScore,
			XFactor:       horse.XFactor,
			CurrentValue:  horse.Value,
		},
		Event: e,
	})
	if err != nil {
		metrics.RecordPipelineFailure("valuation")
		return out, fmt.Errorf("%w: %v", ErrValuation, err)
	}
	value := res.Value
	out.Breakdown = res.Breakdown

	var cascades []model.CascadeEvent
	switch e.Type {
	case model.EventInjury:
		report, _ := e.Injury()
		adj, ok := s.catalog.Apply(value, report.Type)
		metrics.RecordInjuryLookup(ok)
		if !ok {
			metrics.RecordPipelineFailure("injury")
			return out, fmt.Errorf("%w: %q", ErrUnknownInjury, report.Type)
		}
		value = adj.NewValue
		out.Injury = &adj
		out.Breakdown = append(out.Breakdown, valuation.Component{
			Name:   "injury:" + adj.Classification.Code,
			Weight: adj.Classification.ImpactPct / 100,
			Signal: -1,
			Delta:  adj.NewValue - adj.PreviousValue,
		})
		cascades = append(cascades, s.parentEvent(horse, model.CascadeInjury, func(ev *model.CascadeEvent) {
			ev.CareerThreatening = adj.Classification.CareerThreatening
		}))
	case model.EventRaceResult:
		if race, _ := e.Race(); race.IsWin() {
			cascades = append(cascades,
				s.parentEvent(horse, model.CascadeRaceWin, func(ev *model.CascadeEvent) { ev.RaceGrade = race.RaceClass }),
				s.parentEvent(horse, model.CascadeOffspringWin, nil),
			)
		}
	}

	out.Valuations = append(out.Valuations, Valuation{
		TokenID:       horse.TokenID,
		PreviousValue: horse.Value,
		NewValue:      value,
		Reason:        reasonEvent,
	})

	for _, ev := range cascades {
		vals, adjs, err := s.cascade(ctx, horse, ev)
		if err != nil {
			metrics.RecordPipelineFailure("cascade")
			return out, err
		}
		out.Valuations = append(out.Valuations, vals...)
		out.Cascade = append(out.Cascade, adjs...)
	}

	written = true
	for _, v := range out.Valuations {
		if _, err := s.writer.SetValue(ctx, v.TokenID, v.NewValue, hash); err != nil {
			metrics.RecordPipelineFailure("write")
			return out, fmt.Errorf("%w: token %d: %v", ErrWrite, v.TokenID, err)
		}
	}
	metrics.RecordValuationsWritten(len(out.Valuations))

	if s.blobs != nil {
		root, err := s.blobs.Put(ctx, []byte(c.Canonical))
		if err != nil {
			// The commitment is already on the ledger; the blob can be re-put later.
			metrics.RecordPipelineFailure("blob")
			s.logger.Warn(ctx, "failed to store canonical event", logger.String("hash", hash), logger.Error(err))
		} else {
			out.BlobRoot = root
		}
	}

	if s.explainer != nil {
		text, err := s.explainer.Explain(ctx, out.Breakdown)
		if err != nil {
			s.logger.Warn(ctx, "explanation failed", logger.String("hash", hash), logger.Error(err))
		} else {
			out.Explanation = text
		}
	}

	if s.ledger != nil && s.predictionAgent != "" {
		id, err := s.ledger.Log(ctx, ledger.Prediction{
			AgentID:        s.predictionAgent,
			PredictedValue: value,
			Timestamp:      s.now().UnixMilli(),
		})
		if err != nil {
			metrics.RecordPipelineFailure("ledger")
			return out, err
		}
		out.PredictionID = id
	}

	metrics.RecordEventProcessed(string(e.Type))
	return out, nil
}

// parentEvent describes an occurrence on horse as seen by its relatives.
func (s *Service) parentEvent(horse repository.Horse, t model.CascadeType, fill func(*model.CascadeEvent)) model.CascadeEvent { //nolint:gocritic // hugeParam
	ev := model.CascadeEvent{
		ParentTokenID: horse.TokenID,
		ParentSex:     horse.Sex,
		Type:          t,
		PedigreeScore: horse.PedigreeScore,
	}
	if fill != nil {
		fill(&ev)
	}
	return ev
}

// cascade applies ev to the horse's offspring, or to its siblings for a
// sibling win, and returns the resulting valuations.
func (s *Service) cascade(ctx context.Context, horse repository.Horse, ev model.CascadeEvent) ([]Valuation, []model.OffspringAdjustment, error) { //nolint:gocritic // hugeParam
	var (
		related []model.TokenID
		sexes   model.OffspringSexMap
		err     error
	)
	if ev.Type == model.CascadeOffspringWin {
		related, sexes, err = s.reader.Siblings(ctx, horse.TokenID)
	} else {
		related, sexes, err = s.reader.Offspring(ctx, horse.TokenID)
		ev.OffspringCount = len(related)
	}
	if err != nil {
		return nil, nil, err
	}

	adjs := cascade.Apply(ev, related, sexes)
	metrics.RecordCascadeAdjustments(string(ev.Type), len(adjs))

	vals := make([]Valuation, 0, len(adjs))
	for _, a := range adjs {
		rel, err := s.reader.Horse(ctx, a.TokenID)
		if err != nil {
			return nil, nil, err
		}
		vals = append(vals, Valuation{
			TokenID:       a.TokenID,
			PreviousValue: rel.Value,
			NewValue:      rel.Value * a.Multiplier,
			Reason:        a.Reason,
		})
	}
	return vals, adjs, nil
}
