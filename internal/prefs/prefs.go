// Package prefs keeps per-device display preferences.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/pigjjun/board/backend/internal/devicestore"
	"github.com/pigjjun/board/backend/internal/models"
)

const key = "preferences"

type Service struct {
	store devicestore.Store
}

func NewService(store devicestore.Store) *Service {
	return &Service{store: store}
}

// Get returns the device's preferences, or the defaults when none are saved
// or the saved value cannot be read.
func (s *Service) Get(ctx context.Context, device string) (models.Preferences, error) {
	raw, ok, err := s.store.Get(ctx, device, key)
	if err != nil {
		return models.DefaultPreferences(), fmt.Errorf("load preferences: %w", err)
	}
	if !ok {
		return models.DefaultPreferences(), nil
	}
	p := models.DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		log.Printf("prefs: discarding unreadable preferences for device %s: %v", device, err)
		return models.DefaultPreferences(), nil
	}
	if p.Language != models.English && p.Language != models.Korean {
		p.Language = models.English
	}
	return p, nil
}

func (s *Service) Set(ctx context.Context, device string, p models.Preferences) (models.Preferences, error) {
	if p.Language == "" {
		p.Language = models.English
	}
	data, err := json.Marshal(p)
	if err != nil {
		return p, err
	}
	if err := s.store.Set(ctx, device, key, string(data)); err != nil {
		return p, fmt.Errorf("save preferences: %w", err)
	}
	return p, nil
}
