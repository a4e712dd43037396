package snapshot

import (
	"context"
	"sync/atomic"

	"lendrisk/core"
)

type memoryStore struct {
	current atomic.Value
}

// New in process read model store, readers always see a whole snapshot
func New() core.ISnapshotStore {
	return &memoryStore{}
}

func (s *memoryStore) Publish(ctx context.Context, model *core.ReadModel) error {
	s.current.Store(model)
	return nil
}

func (s *memoryStore) Current(ctx context.Context) (*core.ReadModel, error) {
	model, ok := s.current.Load().(*core.ReadModel)
	if !ok || model == nil {
		return nil, core.ErrNoSnapshot
	}

	return model, nil
}
