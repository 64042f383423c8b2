package entities

import (
	"context"
	"errors"

	"github.com/emberfall/lorekeep/internal/apperror"
	"github.com/emberfall/lorekeep/internal/relctx"
)

// ContextStore adapts the entity repository to the relationship-context
// builder's Store contract. GM-only notes are deliberately left out of the
// adapted view so they can never reach a prompt digest.
type ContextStore struct {
	repo EntityRepository
}

// NewContextStore creates a context store over the entity repository.
func NewContextStore(repo EntityRepository) *ContextStore {
	return &ContextStore{repo: repo}
}

// Get resolves one entity. Unknown ids yield nil without error, which the
// builder treats as a dangling link.
func (s *ContextStore) Get(ctx context.Context, id string) (*relctx.Entity, error) {
	entity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return nil, nil
		}
		return nil, err
	}
	return toContextEntity(entity), nil
}

// GetLinkingTo resolves reverse edges via the entity_links index.
func (s *ContextStore) GetLinkingTo(ctx context.Context, id string) ([]*relctx.Entity, error) {
	linkers, err := s.repo.FindLinkingTo(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]*relctx.Entity, len(linkers))
	for i := range linkers {
		out[i] = toContextEntity(&linkers[i])
	}
	return out, nil
}

func toContextEntity(e *Entity) *relctx.Entity {
	links := make([]relctx.Link, len(e.Links))
	for i, l := range e.Links {
		links[i] = relctx.Link{
			TargetID:     l.TargetID,
			Relationship: l.Relationship,
			Strength:     l.Strength,
			Notes:        l.Notes,
		}
	}
	return &relctx.Entity{
		ID:          e.ID,
		Type:        e.Type,
		Name:        e.Name,
		Summary:     e.Summary,
		Description: e.Description,
		Fields:      e.Fields,
		Links:       links,
	}
}
