// Package settings owns the raffle configuration values (price, name, promo
// image path). Updates publish a settings_updated event carrying only the
// keys that changed.
package settings

import (
	"context"
	"fmt"

	"github.com/granrifa/rifa-go/internal/broadcast"
	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/repository"
)

type Service struct {
	store repository.SettingsStore
	hub   *broadcast.Hub
}

func New(store repository.SettingsStore, hub *broadcast.Hub) *Service {
	return &Service{store: store, hub: hub}
}

func (s *Service) All(ctx context.Context) (domain.Settings, error) {
	const op = "service.settings.All"

	values, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return values, nil
}

// Update overwrites the given keys. Publishes one settings_updated event with
// exactly the changed keys; an empty map is a no-op without an event.
func (s *Service) Update(ctx context.Context, changed map[string]string) error {
	const op = "service.settings.Update"

	if len(changed) == 0 {
		return nil
	}

	if err := s.store.Set(ctx, changed); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if s.hub != nil {
		s.hub.Publish(broadcast.SettingsUpdated{Changed: changed})
	}

	return nil
}

// SetImagePath records where the uploaded promo image is served from.
func (s *Service) SetImagePath(ctx context.Context, path string) error {
	return s.Update(ctx, map[string]string{domain.SettingMotoImage: path})
}
