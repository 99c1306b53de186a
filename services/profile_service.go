// services/profile_service.go
package services

import (
	"context"
	"fmt"

	"endotrack/models"
	"endotrack/store"
)

// ProfileUpdate is a partial profile change. Nil fields are left alone.
type ProfileUpdate struct {
	FirstName     *string        `json:"firstName" validate:"omitempty,max=64"`
	CharacterName *string        `json:"characterName" validate:"omitempty,max=32"`
	Avatar        *models.Avatar `json:"avatar"`
}

type ProfileService struct {
	Data *Reconciler
}

func NewProfileService(data *Reconciler) *ProfileService {
	return &ProfileService{Data: data}
}

// EnsureProfile returns the user's profile, creating a default one with a
// zero balance when none exists.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID, email string) (*models.Profile, error) {
	existing, err := s.Data.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.Data.Now().UTC()
	profile := models.Profile{
		UserID:    userID,
		Email:     email,
		Character: models.Character{Avatar: models.DefaultAvatar},
		CreatedAt: &now,
	}
	doc, err := store.Encode(profile)
	if err != nil {
		return nil, err
	}
	// The balance starts at zero by absence; only increments write it.
	if character, ok := doc["character"].(map[string]interface{}); ok {
		delete(character, "endolots")
	}
	if err := s.Data.SaveProfile(ctx, userID, doc); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	return &profile, nil
}

// Update merges upd over the stored profile. The balance is never part of
// a profile write; it only moves through CreditEndolots.
func (s *ProfileService) Update(ctx context.Context, userID string, upd ProfileUpdate) (*models.Profile, error) {
	patch := store.Doc{}
	if upd.FirstName != nil {
		patch["firstName"] = *upd.FirstName
	}
	if upd.CharacterName != nil {
		patch = store.MergeDocs(patch, store.Nested("character.name", *upd.CharacterName))
	}
	if upd.Avatar != nil {
		if err := upd.Avatar.Validate(); err != nil {
			return nil, err
		}
		avatar, err := store.Encode(upd.Avatar)
		if err != nil {
			return nil, err
		}
		patch = store.MergeDocs(patch, store.Nested("character.avatar", avatar))
	}

	if err := s.Data.SaveProfile(ctx, userID, patch); err != nil {
		return nil, err
	}
	return s.Data.LoadProfile(ctx, userID)
}

// Balance returns the user's endolots.
func (s *ProfileService) Balance(ctx context.Context, userID string) (int64, error) {
	profile, err := s.Data.LoadProfile(ctx, userID)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return 0, nil
	}
	return profile.Character.Endolots, nil
}
