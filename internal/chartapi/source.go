package chartapi

import (
	"context"

	"git.lost.host/meutraa/tiles/internal/game"
)

// Cache stores raw chart documents by job id.
type Cache interface {
	Get(jobID string) ([]byte, bool, error)
	Put(jobID string, body []byte) error
}

// Source loads charts, preferring the cache and filling it on a miss. Cache
// failures are logged and otherwise ignored.
type Source struct {
	Client *Client
	Cache  Cache // May be nil
}

func (s *Source) Load(ctx context.Context, jobID string) (*game.Chart, error) {
	if s.Cache != nil {
		body, ok, err := s.Cache.Get(jobID)
		if err != nil {
			s.Client.logger.Warn("chart cache read failed", "job", jobID, "error", err)
		} else if ok {
			chart, err := s.Client.Decode(body)
			if err == nil {
				err = chart.Validate()
			}
			if err == nil {
				s.Client.logger.Debug("chart loaded from cache", "job", jobID)
				return chart, nil
			}
			s.Client.logger.Warn("cached chart unusable", "job", jobID, "error", err)
		}
	}

	body, err := s.Client.FetchRaw(ctx, jobID)
	if err != nil {
		return nil, err
	}
	chart, err := s.Client.Decode(body)
	if err != nil {
		return nil, err
	}
	if err := chart.Validate(); err != nil {
		// Charts still being generated are not kept, so the next run fetches again.
		s.Client.logger.Warn("chart not cached", "job", jobID, "error", err)
		return chart, nil
	}
	if s.Cache != nil {
		if err := s.Cache.Put(jobID, body); err != nil {
			s.Client.logger.Warn("chart cache write failed", "job", jobID, "error", err)
		}
	}
	return chart, nil
}
