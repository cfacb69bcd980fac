package store

import "guidex.app/curator/core/db"

// Stores bundles typed accessors over a shared querier. Bound to the pool for
// standalone reads, or to a transaction via the service TxRunner.
type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Contributions() ContributionStore {
	return &contributionStore{q: s.q}
}

func (s *Stores) Payloads() PayloadStore {
	return &payloadStore{q: s.q}
}

func (s *Stores) Guidelines() GuidelineStore {
	return &guidelineStore{q: s.q}
}

func (s *Stores) Users() UserStore {
	return &userStore{q: s.q}
}

func (s *Stores) Sessions() SessionStore {
	return &sessionStore{q: s.q}
}
