package carpool

import (
	"context"
	"strings"
	"time"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/repository"
	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

func (e *Engine) requireMember(ctx context.Context, caller *auth.Identity, groupID string) error {
	if _, err := e.repo.Group.GetByID(ctx, groupID); err != nil {
		return notFound(err, "group %s not found", groupID)
	}
	ok, err := e.repo.Group.IsMember(ctx, groupID, caller.UID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbiddenf("not a member of group %s", groupID)
	}
	return nil
}

// pickupWindow turns a date and an optional HH:MM into the pickup range a
// driver can choose from.
func (e *Engine) pickupWindow(date, at string) (time.Time, time.Time, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Invalidf("date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(at) == "" {
		return day, day.Add(24*time.Hour - time.Nanosecond), nil
	}
	t, err := time.Parse(dateLayout+" "+timeLayout, day.Format(dateLayout)+" "+strings.TrimSpace(at))
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Invalidf("time must be HH:MM")
	}
	return t.Add(-e.cfg.PickupWindow), t.Add(e.cfg.PickupWindow), nil
}

// PendingForGroup lists the unmatched requests a driver in the group can
// absorb, each with its children and their parent.
func (e *Engine) PendingForGroup(ctx context.Context, caller *auth.Identity, groupID, date, at, endingAddress string) ([]models.Request, error) {
	if err := e.requireMember(ctx, caller, groupID); err != nil {
		return nil, err
	}
	from, to, err := e.pickupWindow(date, at)
	if err != nil {
		return nil, err
	}
	return e.repo.Request.ListPending(ctx, repository.PendingFilter{
		GroupID:       groupID,
		From:          from,
		To:            to,
		EndingAddress: endingAddress,
	})
}

// UserCarpoolsAndRequests returns the user's carpools as driver and
// requests as parent.
func (e *Engine) UserCarpoolsAndRequests(ctx context.Context, caller *auth.Identity, userID string) ([]models.Carpool, []models.Request, error) {
	if caller.UID != userID {
		return nil, nil, apperr.Forbiddenf("cannot read another user's carpools")
	}
	carpools, err := e.repo.Carpool.ListByDriver(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	requests, err := e.repo.Request.ListByParent(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return carpools, requests, nil
}

// CarpoolWithRequests returns a carpool with every request on it. Only
// members of the carpool's group may read it.
func (e *Engine) CarpoolWithRequests(ctx context.Context, caller *auth.Identity, carpoolID string) (*models.Carpool, error) {
	c, err := e.loadCarpool(ctx, carpoolID)
	if err != nil {
		return nil, err
	}
	if c.DriverID == caller.UID {
		return c, nil
	}
	if err := e.requireMember(ctx, caller, c.GroupID); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) CarpoolsByGroup(ctx context.Context, groupID string) ([]models.Carpool, error) {
	return e.repo.Carpool.ListByGroup(ctx, groupID)
}
