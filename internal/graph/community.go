package graph

import (
	"context"

	"github.com/chachabrian/carpool-backend/internal/dto"
)

func (r *Resolver) GetUser(ctx context.Context, args struct{ ID string }) (*dto.User, error) {
	if _, err := r.caller(ctx); err != nil {
		return nil, err
	}
	u, err := r.community.User(ctx, args.ID)
	if err != nil {
		return nil, r.fail("getUser", err)
	}
	return dto.FromUser(u), nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ Input dto.CreateUserInput }) (*dto.User, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := r.community.CreateUser(ctx, caller, args.Input)
	if err != nil {
		return nil, r.fail("createUser", err)
	}
	return dto.FromUser(u), nil
}

func (r *Resolver) UpdateUserInfo(ctx context.Context, args struct{ Input dto.UpdateUserInput }) (*dto.User, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := r.community.UpdateUser(ctx, caller, args.Input)
	if err != nil {
		return nil, r.fail("updateUserInfo", err)
	}
	return dto.FromUser(u), nil
}

func (r *Resolver) UpdateExpoPushToken(ctx context.Context, args struct{ Token *string }) (*dto.User, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := r.community.UpdatePushToken(ctx, caller, args.Token)
	if err != nil {
		return nil, r.fail("updateExpoPushToken", err)
	}
	return dto.FromUser(u), nil
}

func (r *Resolver) GetGroups(ctx context.Context) ([]*dto.Group, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := r.community.Groups(ctx, caller)
	if err != nil {
		return nil, r.fail("getGroups", err)
	}
	out := make([]*dto.Group, 0, len(groups))
	for i := range groups {
		out = append(out, dto.FromGroup(&groups[i]))
	}
	return out, nil
}

func (r *Resolver) GetGroupWithUsers(ctx context.Context, args struct{ GroupID string }) (*dto.Group, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	g, err := r.community.GroupWithUsers(ctx, caller, args.GroupID)
	if err != nil {
		return nil, r.fail("getGroupWithUsers", err)
	}
	return dto.FromGroup(g), nil
}

func (r *Resolver) CreateGroup(ctx context.Context, args struct{ Input dto.CreateGroupInput }) (*dto.Group, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	g, err := r.community.CreateGroup(ctx, caller, args.Input)
	if err != nil {
		return nil, r.fail("createGroup", err)
	}
	return dto.FromGroup(g), nil
}

type memberArgs struct {
	GroupID string
	UserID  string
}

func (r *Resolver) AddMemberToGroup(ctx context.Context, args memberArgs) (*dto.Group, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	g, err := r.community.AddMember(ctx, caller, args.GroupID, args.UserID)
	if err != nil {
		return nil, r.fail("addMemberToGroup", err)
	}
	return dto.FromGroup(g), nil
}

func (r *Resolver) DeleteMemberFromGroup(ctx context.Context, args memberArgs) (bool, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return false, err
	}
	removed, err := r.community.RemoveMember(ctx, caller, args.GroupID, args.UserID)
	if err != nil {
		return false, r.fail("deleteMemberFromGroup", err)
	}
	return removed, nil
}

func (r *Resolver) CreateVehicle(ctx context.Context, args struct{ Input dto.CreateVehicleInput }) (*dto.Vehicle, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	v, err := r.community.CreateVehicle(ctx, caller, args.Input)
	if err != nil {
		return nil, r.fail("createVehicle", err)
	}
	return dto.FromVehicle(v), nil
}

func (r *Resolver) GetVehicleForUser(ctx context.Context, args struct{ UserID string }) ([]*dto.Vehicle, error) {
	if _, err := r.caller(ctx); err != nil {
		return nil, err
	}
	vs, err := r.community.VehiclesForUser(ctx, args.UserID)
	if err != nil {
		return nil, r.fail("getVehicleForUser", err)
	}
	out := make([]*dto.Vehicle, 0, len(vs))
	for i := range vs {
		out = append(out, dto.FromVehicle(&vs[i]))
	}
	return out, nil
}

func (r *Resolver) CreateChild(ctx context.Context, args struct{ Input dto.CreateChildInput }) (*dto.Child, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := r.community.CreateChild(ctx, caller, args.Input)
	if err != nil {
		return nil, r.fail("createChild", err)
	}
	return dto.FromChild(c), nil
}

func (r *Resolver) GetChildrenForUser(ctx context.Context, args struct{ UserID string }) ([]*dto.Child, error) {
	if _, err := r.caller(ctx); err != nil {
		return nil, err
	}
	kids, err := r.community.ChildrenForUser(ctx, args.UserID)
	if err != nil {
		return nil, r.fail("getChildrenForUser", err)
	}
	out := make([]*dto.Child, 0, len(kids))
	for i := range kids {
		out = append(out, dto.FromChild(&kids[i]))
	}
	return out, nil
}

func (r *Resolver) GetCommunityCenters(ctx context.Context, args struct{ Lat, Lon float64 }) ([]*dto.CommunityCenter, error) {
	if _, err := r.caller(ctx); err != nil {
		return nil, err
	}
	centers, err := r.community.CommunityCenters(ctx, args.Lat, args.Lon)
	if err != nil {
		return nil, r.fail("getCommunityCenters", err)
	}
	return centers, nil
}

func (r *Resolver) FilterSchoolsByName(ctx context.Context, args struct{ Name string }) ([]*dto.School, error) {
	if _, err := r.caller(ctx); err != nil {
		return nil, err
	}
	schools, err := r.community.SearchSchools(ctx, args.Name)
	if err != nil {
		return nil, r.fail("filterSchoolsByName", err)
	}
	out := make([]*dto.School, 0, len(schools))
	for i := range schools {
		out = append(out, dto.FromSchool(&schools[i]))
	}
	return out, nil
}

func (r *Resolver) GetNotificationPreferences(ctx context.Context) (*dto.NotificationPreferences, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	pref, err := r.community.Preferences(ctx, caller)
	if err != nil {
		return nil, r.fail("getNotificationPreferences", err)
	}
	return dto.FromPreferences(pref), nil
}

func (r *Resolver) UpdateNotificationPreferences(ctx context.Context, args struct{ Input dto.PreferencesInput }) (*dto.NotificationPreferences, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	pref, err := r.community.UpdatePreferences(ctx, caller, args.Input)
	if err != nil {
		return nil, r.fail("updateNotificationPreferences", err)
	}
	return dto.FromPreferences(pref), nil
}

func (r *Resolver) GetUsers(ctx context.Context) ([]*dto.User, error) {
	if _, err := r.caller(ctx); err != nil {
		return nil, err
	}
	users, err := r.community.Users(ctx)
	if err != nil {
		return nil, r.fail("getUsers", err)
	}
	out := make([]*dto.User, 0, len(users))
	for i := range users {
		out = append(out, dto.FromUser(&users[i]))
	}
	return out, nil
}

func (r *Resolver) GetFriends(ctx context.Context) ([]*dto.Friendship, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	friends, err := r.community.Friends(ctx, caller)
	if err != nil {
		return nil, r.fail("getFriends", err)
	}
	out := make([]*dto.Friendship, 0, len(friends))
	for i := range friends {
		out = append(out, dto.FromFriend(&friends[i]))
	}
	return out, nil
}

func (r *Resolver) GetFriend(ctx context.Context, args struct{ FriendID string }) (*dto.Friendship, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	f, err := r.community.Friend(ctx, caller, args.FriendID)
	if err != nil {
		return nil, r.fail("getFriend", err)
	}
	return dto.FromFriend(f), nil
}

func (r *Resolver) AddFriend(ctx context.Context, args struct{ FriendID string }) (*dto.Friendship, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return nil, err
	}
	f, err := r.community.AddFriend(ctx, caller, args.FriendID)
	if err != nil {
		return nil, r.fail("addFriend", err)
	}
	return dto.FromFriend(f), nil
}

func (r *Resolver) DeleteFriend(ctx context.Context, args struct{ FriendID string }) (bool, error) {
	caller, err := r.caller(ctx)
	if err != nil {
		return false, err
	}
	removed, err := r.community.RemoveFriend(ctx, caller, args.FriendID)
	if err != nil {
		return false, r.fail("deleteFriend", err)
	}
	return removed, nil
}
