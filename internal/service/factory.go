package service

import (
	"log/slog"

	"guidex.app/curator/core/config"
	"guidex.app/curator/internal/queue"
	"guidex.app/curator/internal/search"
	"guidex.app/curator/internal/store"
)

type Services struct {
	stores    *store.Stores
	txRunner  TxRunner
	producer  queue.Producer
	indexer   search.Indexer
	workOSCfg config.WorkOSConfig
	logger    *slog.Logger
}

func NewServices(
	stores *store.Stores,
	txRunner TxRunner,
	producer queue.Producer,
	indexer search.Indexer,
	workOSCfg config.WorkOSConfig,
	logger *slog.Logger,
) *Services {
	return &Services{
		stores:    stores,
		txRunner:  txRunner,
		producer:  producer,
		indexer:   indexer,
		workOSCfg: workOSCfg,
		logger:    logger,
	}
}

func (s *Services) Contributions() ContributionService {
	return NewContributionService(
		s.stores.Contributions(),
		s.stores.Payloads(),
		s.txRunner,
		s.producer,
		s.Authorizer(),
		NewPublisher(s.txRunner, s.indexer, s.logger),
		s.logger,
	)
}

func (s *Services) Guidelines() GuidelineService {
	return NewGuidelineService(s.stores.Guidelines())
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Users(), s.stores.Sessions(), s.workOSCfg)
}

func (s *Services) Authorizer() Authorizer {
	return NewRoleAuthorizer(s.stores.Users())
}
