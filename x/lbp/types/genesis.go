package types

// GenesisState holds the pools and the pool ID sequence carried across
// chain restarts.
type GenesisState struct {
	Pools        []*Pool `json:"pools"`
	PoolSequence uint64  `json:"pool_sequence"`
}

// DefaultGenesisState returns a genesis with no pools.
func DefaultGenesisState() *GenesisState {
	return &GenesisState{
		Pools:        []*Pool{},
		PoolSequence: 0,
	}
}

// Validate checks genesis pools for duplicate IDs and missing fields.
func (s *GenesisState) Validate() error {
	seen := make(map[string]struct{}, len(s.Pools))
	for _, pool := range s.Pools {
		if pool.PoolID == "" {
			return ErrPoolNotFound
		}
		if _, ok := seen[pool.PoolID]; ok {
			return ErrAlreadyInitialized
		}
		seen[pool.PoolID] = struct{}{}

		if !ValidTokenCount(pool.Profile, len(pool.Tokens)) {
			return ErrInvalidConfig
		}
		if len(pool.Schedule.StartWeights) != len(pool.Tokens) ||
			len(pool.Schedule.EndWeights) != len(pool.Tokens) {
			return ErrInvalidSchedule
		}
	}
	return nil
}
