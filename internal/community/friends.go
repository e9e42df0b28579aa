package community

import (
	"context"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

const userListLimit = 200

// Users is the member directory used to find people to befriend or invite.
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	return s.repo.User.List(ctx, userListLimit)
}

// AddFriend records friendID in the caller's friend list. Adding the same
// friend twice returns the existing entry.
func (s *Service) AddFriend(ctx context.Context, caller *auth.Identity, friendID string) (*models.Friend, error) {
	if friendID == "" || friendID == caller.UID {
		return nil, apperr.Invalidf("cannot add yourself as a friend")
	}
	if _, err := s.repo.User.GetByID(ctx, friendID); err != nil {
		return nil, notFound(err, "user %s not found", friendID)
	}
	if err := s.repo.Friend.Add(ctx, caller.UID, friendID); err != nil {
		return nil, err
	}
	return s.repo.Friend.Get(ctx, caller.UID, friendID)
}

func (s *Service) Friends(ctx context.Context, caller *auth.Identity) ([]models.Friend, error) {
	return s.repo.Friend.ListForUser(ctx, caller.UID)
}

func (s *Service) Friend(ctx context.Context, caller *auth.Identity, friendID string) (*models.Friend, error) {
	f, err := s.repo.Friend.Get(ctx, caller.UID, friendID)
	if err != nil {
		return nil, notFound(err, "%s is not in your friends", friendID)
	}
	return f, nil
}

// RemoveFriend reports whether an entry was removed.
func (s *Service) RemoveFriend(ctx context.Context, caller *auth.Identity, friendID string) (bool, error) {
	return s.repo.Friend.Remove(ctx, caller.UID, friendID)
}
