package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/client"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/cache"
	"lending-engine/internal/infrastructure/monitoring"
)

// Application is a scoring request for a specific client. The document and
// collateral scalars arrive pre-validated from the intake surface.
type Application struct {
	ClientID        int64
	DocumentCount   int
	RequestedAmount float64
	CollateralValue float64
	HasGuarantor    bool
}

type Service interface {
	// ScoreApplication resolves the client's stored base score, runs the
	// engine, persists the new score back onto the client record and caches
	// the result.
	ScoreApplication(ctx context.Context, app Application) (*Result, error)

	// LatestScore returns the most recently computed result for a client,
	// served from cache when available.
	LatestScore(ctx context.Context, clientID int64) (*Result, error)
}

type scoringService struct {
	engine        *Engine
	clientService client.Service
	cache         cache.Repository
	pub           event.Publisher
	logger        *slog.Logger
}

func NewService(engine *Engine, cs client.Service, cacheRepo cache.Repository, pub event.Publisher, logger *slog.Logger) Service {
	if pub == nil {
		pub = event.NewNoopPublisher()
	}
	return &scoringService{
		engine:        engine,
		clientService: cs,
		cache:         cacheRepo,
		pub:           pub,
		logger:        logger.With("component", "scoringService"),
	}
}

func cacheKey(clientID int64) string {
	return fmt.Sprintf("score:client:%d", clientID)
}

func (s *scoringService) ScoreApplication(ctx context.Context, app Application) (*Result, error) {
	cl, err := s.clientService.GetClient(ctx, app.ClientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load client %d for scoring: %w", app.ClientID, err)
	}

	result := s.engine.Score(Inputs{
		BaseScore:       cl.CreditScore,
		DocumentCount:   app.DocumentCount,
		RequestedAmount: app.RequestedAmount,
		CollateralValue: app.CollateralValue,
		HasGuarantor:    app.HasGuarantor,
	})
	monitoring.RecordScoreComputed(string(result.Band))

	if err := s.clientService.UpdateCreditScore(ctx, app.ClientID, result.FinalScore); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist new credit score", "clientID", app.ClientID, slog.Any("error", err))
		return nil, fmt.Errorf("failed to persist credit score for client %d: %w", app.ClientID, err)
	}

	s.cacheResult(ctx, app.ClientID, &result)

	if err := s.pub.PublishScoreEvent(ctx, event.RoutingKeyScoreComputed, event.ScoreEvent{
		ClientID:           app.ClientID,
		FinalScore:         result.FinalScore,
		Band:               string(result.Band),
		RecommendedCeiling: result.RecommendedCeiling,
		Timestamp:          time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish score event", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "Application scored",
		"clientID", app.ClientID, "finalScore", result.FinalScore, "band", result.Band)
	return &result, nil
}

func (s *scoringService) LatestScore(ctx context.Context, clientID int64) (*Result, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheKey(clientID)); ok {
			var cached Result
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
			s.logger.WarnContext(ctx, "Discarding malformed cached score", "clientID", clientID)
		}
	}

	cl, err := s.clientService.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if cl.CreditScore == 0 {
		return nil, fmt.Errorf("%w: client %d has no score history", client.ErrNotFound, clientID)
	}

	// Rebuild band and ceiling from the stored score; the adjustment
	// breakdown is only available for freshly computed results.
	result := s.engine.Score(Inputs{BaseScore: cl.CreditScore})
	return &result, nil
}

func (s *scoringService) cacheResult(ctx context.Context, clientID int64, result *Result) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(clientID), string(raw)); err != nil {
		s.logger.WarnContext(ctx, "Failed to cache score result", "clientID", clientID, slog.Any("error", err))
	}
}
