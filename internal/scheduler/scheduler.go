package scheduler

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"ordersync/internal/config"
	"ordersync/internal/services"
)

// Scheduler triggers recurring refreshes: a nightly full pass at the
// configured hour:minute (UTC) and an optional every-N-minutes latest
// pass. It is just a timed caller of the refresh coordinator; all
// failure handling lives behind the trigger.
type Scheduler struct {
	service *services.RefreshService
	cfg     config.Schedule
	log     *zap.Logger
	stop    chan struct{}
}

func New(service *services.RefreshService, cfg config.Schedule, log *zap.Logger) *Scheduler {
	return &Scheduler{
		service: service,
		cfg:     cfg,
		log:     log,
		stop:    make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.nightlyLoop()
	if s.cfg.LatestIntervalMin > 0 {
		go s.latestLoop()
	}
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) nightlyLoop() {
	for {
		wait := time.Until(s.nextNightly(time.Now().UTC()))
		select {
		case <-s.stop:
			return
		case <-time.After(wait):
		}

		s.log.Info("starting scheduled full refresh")
		if err := s.service.RefreshFull(); err != nil {
			if errors.Is(err, services.ErrRefreshInProgress) {
				s.log.Warn("scheduled full refresh skipped", zap.Error(err))
				continue
			}
			s.log.Error("scheduled full refresh failed to start", zap.Error(err))
		}
	}
}

func (s *Scheduler) nextNightly(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.Hour, s.cfg.Minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) latestLoop() {
	ticker := time.NewTicker(time.Duration(s.cfg.LatestIntervalMin) * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		if err := s.service.RefreshLatest(); err != nil {
			if errors.Is(err, services.ErrRefreshInProgress) {
				s.log.Warn("scheduled latest refresh skipped", zap.Error(err))
				continue
			}
			s.log.Error("scheduled latest refresh failed to start", zap.Error(err))
		}
	}
}
