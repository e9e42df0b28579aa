package graph

import (
	"context"

	"github.com/chachabrian/carpool-backend/internal/dto"
)

type pendingArgs struct {
	GroupID       string
	Date          string
	Time          *string
	EndingAddress *string
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func flag(b *bool) bool {
	return b != nil && *b
}

func (r *Resolver) GetCarpoolersByGroupWithoutApprovedRequests(ctx context.Context, args pendingArgs) ([]*dto.Request, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := r.carpools.PendingForGroup(ctx, caller, args.GroupID, args.Date, str(args.Time), str(args.EndingAddress))
	if err != nil {
		return nil, r.fail("getCarpoolersByGroupWithoutApprovedRequests", err)
	}
	return dto.FromRequests(reqs), nil
}

func (r *Resolver) GetUserCarpoolsAndRequests(ctx context.Context, args struct{ UserID string }) (*dto.UserCarpoolsAndRequests, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	carpools, reqs, err := r.carpools.UserCarpoolsAndRequests(ctx, caller, args.UserID)
	if err != nil {
		return nil, r.fail("getUserCarpoolsAndRequests", err)
	}
	return &dto.UserCarpoolsAndRequests{
		Carpools: dto.FromCarpools(carpools),
		Requests: dto.FromRequests(reqs),
	}, nil
}

func (r *Resolver) GetCarpoolWithRequests(ctx context.Context, args struct{ CarpoolID string }) (*dto.Carpool, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := r.carpools.CarpoolWithRequests(ctx, caller, args.CarpoolID)
	if err != nil {
		return nil, r.fail("getCarpoolWithRequests", err)
	}
	return dto.FromCarpool(c), nil
}

func (r *Resolver) GetCarpoolsByGroup(ctx context.Context, args struct{ GroupID string }) ([]*dto.Carpool, error) {
	if _, err := r.caller(ctx); err != nil {
		return nil, err
	}
	cs, err := r.carpools.CarpoolsByGroup(ctx, args.GroupID)
	if err != nil {
		return nil, r.fail("getCarpoolsByGroup", err)
	}
	return dto.FromCarpools(cs), nil
}

func (r *Resolver) CreateCarpool(ctx context.Context, args struct{ Input dto.CreateCarpoolInput }) (*dto.Carpool, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := r.carpools.CreateCarpool(ctx, caller, args.Input)
	if err != nil {
		return nil, r.fail("createCarpool", err)
	}
	return dto.FromCarpool(c), nil
}

func (r *Resolver) CreateRequest(ctx context.Context, args struct{ Input dto.CreateRequestInput }) (*dto.Request, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := r.carpools.CreateRequest(ctx, caller, args.Input)
	if err != nil {
		return nil, r.fail("createRequest", err)
	}
	return dto.FromRequest(req), nil
}

func (r *Resolver) ApproveRequest(ctx context.Context, args struct{ RequestID string }) (*dto.Request, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := r.carpools.ApproveRequest(ctx, caller, args.RequestID)
	if err != nil {
		return nil, r.fail("approveRequest", err)
	}
	return dto.FromRequest(req), nil
}

type locationArgs struct {
	CarpoolID          string
	Lat                float64
	Lon                float64
	NextStop           dto.NextStopInput
	TimeToNextStop     *string
	TotalTime          *string
	TimeUntilNextStop  *string
	IsLeaving          *bool
	IsFinalDestination *bool
}

func (r *Resolver) SendLocation(ctx context.Context, args locationArgs) (*dto.LocationData, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := r.tracker.Report(ctx, caller, dto.LocationReport{
		CarpoolID:          args.CarpoolID,
		Lat:                args.Lat,
		Lon:                args.Lon,
		NextStop:           args.NextStop,
		TimeToNextStop:     str(args.TimeToNextStop),
		TotalTime:          str(args.TotalTime),
		TimeUntilNextStop:  str(args.TimeUntilNextStop),
		IsLeaving:          flag(args.IsLeaving),
		IsFinalDestination: flag(args.IsFinalDestination),
	})
	if err != nil {
		return nil, r.fail("sendLocation", err)
	}
	return loc, nil
}

type notificationInfoInput struct {
	CarpoolID          string
	NotificationType   dto.NotificationType
	Lat                float64
	Lon                float64
	NextStop           dto.NextStopInput
	TimeToNextStop     *string
	TimeUntilNextStop  *string
	IsFinalDestination *bool
}

func (r *Resolver) SendNotificationInfo(ctx context.Context, args struct{ Input notificationInfoInput }) (bool, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return false, err
	}
	in := args.Input
	sent, err := r.tracker.Notify(ctx, caller, dto.NotificationInfo{
		CarpoolID:          in.CarpoolID,
		NotificationType:   in.NotificationType,
		Lat:                in.Lat,
		Lon:                in.Lon,
		NextStop:           in.NextStop,
		TimeToNextStop:     str(in.TimeToNextStop),
		TimeUntilNextStop:  str(in.TimeUntilNextStop),
		IsFinalDestination: flag(in.IsFinalDestination),
	})
	if err != nil {
		return false, r.fail("sendNotificationInfo", err)
	}
	return sent, nil
}

func (r *Resolver) ResetNotificationTracking(ctx context.Context, args struct{ CarpoolID string }) (bool, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return false, err
	}
	ok, err := r.tracker.ResetTracking(ctx, caller, args.CarpoolID)
	if err != nil {
		return false, r.fail("resetNotificationTracking", err)
	}
	return ok, nil
}

func (r *Resolver) AddRequestToCarpool(ctx context.Context, args struct {
	CarpoolID string
	RequestID string
}) (*dto.Carpool, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := r.carpools.AddRequestToCarpool(ctx, caller, args.CarpoolID, args.RequestID)
	if err != nil {
		return nil, r.fail("addRequestToCarpool", err)
	}
	return dto.FromCarpool(c), nil
}
