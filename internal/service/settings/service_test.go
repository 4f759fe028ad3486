package settings_test

import (
	"context"
	"testing"

	"github.com/granrifa/rifa-go/internal/broadcast"
	"github.com/granrifa/rifa-go/internal/domain"
	"github.com/granrifa/rifa-go/internal/repository/inmemory"
	"github.com/granrifa/rifa-go/internal/service/settings"
)

var defaults = map[string]string{
	domain.SettingPrice:      "50",
	domain.SettingRaffleName: "Gran Rifa",
	domain.SettingMotoImage:  "/uploads/moto.jpg",
}

func TestUpdatePublishesChangedKeysOnly(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore(1, defaults)
	hub := broadcast.NewHub(nil)
	svc := settings.New(store, hub)

	sub := hub.Subscribe()

	if err := svc.Update(ctx, map[string]string{domain.SettingPrice: "75"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	evt := <-sub.Events()
	su, ok := evt.(broadcast.SettingsUpdated)
	if !ok {
		t.Fatalf("got %T, want SettingsUpdated", evt)
	}
	if len(su.Changed) != 1 || su.Changed[domain.SettingPrice] != "75" {
		t.Fatalf("changed %v, want only price=75", su.Changed)
	}

	select {
	case extra := <-sub.Events():
		t.Fatalf("got extra event %v, want exactly one per update", extra)
	default:
	}

	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if all[domain.SettingPrice] != "75" {
		t.Fatalf("price %q, want 75", all[domain.SettingPrice])
	}
	if all[domain.SettingRaffleName] != "Gran Rifa" {
		t.Fatalf("untouched key changed: %q", all[domain.SettingRaffleName])
	}
}

func TestUpdateEmptyMapIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore(1, defaults)
	hub := broadcast.NewHub(nil)
	svc := settings.New(store, hub)

	sub := hub.Subscribe()

	if err := svc.Update(ctx, nil); err != nil {
		t.Fatalf("Update(nil) failed: %v", err)
	}
	if err := svc.Update(ctx, map[string]string{}); err != nil {
		t.Fatalf("Update(empty) failed: %v", err)
	}

	select {
	case evt := <-sub.Events():
		t.Fatalf("no-op update published %v", evt)
	default:
	}
}

func TestSetImagePath(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore(1, defaults)
	hub := broadcast.NewHub(nil)
	svc := settings.New(store, hub)

	sub := hub.Subscribe()

	if err := svc.SetImagePath(ctx, "/uploads/moto.png"); err != nil {
		t.Fatalf("SetImagePath failed: %v", err)
	}

	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if all[domain.SettingMotoImage] != "/uploads/moto.png" {
		t.Fatalf("moto_image %q, want /uploads/moto.png", all[domain.SettingMotoImage])
	}

	evt := <-sub.Events()
	su, ok := evt.(broadcast.SettingsUpdated)
	if !ok || su.Changed[domain.SettingMotoImage] != "/uploads/moto.png" {
		t.Fatalf("got event %v, want settings_updated with new image path", evt)
	}
}
