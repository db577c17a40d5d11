package services

import (
	"sync"

	"github.com/stakeflow/stakeflow-indexer/internal/clients/tzktclient"
	"github.com/stakeflow/stakeflow-indexer/internal/config"
	"github.com/stakeflow/stakeflow-indexer/internal/db"
)

// Publisher receives every dashboard produced by a successful refresh.
type Publisher interface {
	Publish(dashboard *Dashboard)
}

type Service struct {
	cfg       *config.Config
	db        db.DbInterface
	tzkt      tzktclient.TzktInterface
	publisher Publisher

	// refreshMu serializes load cycles, the persisted cache has a single writer
	refreshMu sync.Mutex

	mu      sync.RWMutex
	latest  *Dashboard
	lastErr error
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	tzkt tzktclient.TzktInterface,
) *Service {
	return &Service{
		cfg:  cfg,
		db:   db,
		tzkt: tzkt,
	}
}

// SetPublisher must be called before the first refresh.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// LatestDashboard returns the last successfully built dashboard, if any, and
// the error of the last refresh, nil when it succeeded.
func (s *Service) LatestDashboard() (*Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.lastErr
}
