package dto

import (
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func FromUser(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          optional(u.LastName),
		Email:             u.Email,
		PhoneNumber:       optional(u.PhoneNumber),
		City:              optional(u.City),
		ImageURL:          optional(u.ImageURL),
		LicenseImageURL:   optional(u.LicenseImageURL),
		InsuranceImageURL: optional(u.InsuranceImageURL),
		ExpoPushToken:     u.ExpoPushToken,
		CreatedAt:         formatTime(u.CreatedAt),
	}
}

func FromVehicle(v *models.Vehicle) *Vehicle {
	if v == nil {
		return nil
	}
	return &Vehicle{
		ID:              v.ID,
		UserID:          v.UserID,
		Make:            v.Make,
		Model:           v.Model,
		Year:            v.Year,
		LicensePlate:    v.LicensePlate,
		Color:           v.Color,
		Seats:           int32(v.Seats),
		VehicleImageURL: optional(v.ImageURL),
	}
}

func FromChild(c *models.Child) *Child {
	if c == nil {
		return nil
	}
	return &Child{
		ID:                 c.ID,
		UserID:             c.UserID,
		FirstName:          c.FirstName,
		LastName:           optional(c.LastName),
		SchoolID:           c.SchoolID,
		SchoolEmailAddress: optional(c.SchoolEmailAddress),
		ImageURL:           optional(c.ImageURL),
		CreatedAt:          formatTime(c.CreatedAt),
		Parent:             FromUser(c.Parent),
	}
}

func FromRequest(r *models.Request) *Request {
	if r == nil {
		return nil
	}
	out := &Request{
		ID:              r.ID,
		CarpoolID:       r.CarpoolID,
		ParentID:        r.ParentID,
		GroupID:         r.GroupID,
		IsApproved:      r.IsApproved,
		StartingAddress: r.StartingAddress,
		EndingAddress:   r.EndingAddress,
		StartingLat:     r.StartingLat,
		StartingLon:     r.StartingLon,
		EndingLat:       r.EndingLat,
		EndingLon:       r.EndingLon,
		PickupTime:      formatTime(r.PickupTime),
		CreatedAt:       formatTime(r.CreatedAt),
		Children:        make([]*Child, 0, len(r.Children)),
		Parent:          FromUser(r.Parent),
	}
	for i := range r.Children {
		child := FromChild(&r.Children[i])
		if child.Parent == nil && r.Parent != nil && r.Children[i].UserID == r.Parent.ID {
			child.Parent = out.Parent
		}
		out.Children = append(out.Children, child)
	}
	if r.Carpool != nil {
		out.Driver = FromUser(r.Carpool.Driver)
	}
	return out
}

func FromRequests(reqs []models.Request) []*Request {
	out := make([]*Request, 0, len(reqs))
	for i := range reqs {
		out = append(out, FromRequest(&reqs[i]))
	}
	return out
}

func FromCarpool(c *models.Carpool) *Carpool {
	if c == nil {
		return nil
	}
	return &Carpool{
		ID:              c.ID,
		DriverID:        c.DriverID,
		VehicleID:       c.VehicleID,
		GroupID:         c.GroupID,
		StartAddress:    c.StartAddress,
		EndAddress:      c.EndAddress,
		StartLat:        c.StartLat,
		StartLon:        c.StartLon,
		EndLat:          c.EndLat,
		EndLon:          c.EndLon,
		DepartureDate:   c.DepartureDate,
		DepartureTime:   c.DepartureTime,
		ExtraCarSeat:    c.ExtraCarSeat,
		WinterTires:     c.WinterTires,
		TripPreferences: c.TripPreferences,
		EstimatedTime:   c.EstimatedTime,
		CreatedAt:       formatTime(c.CreatedAt),
		Driver:          FromUser(c.Driver),
		Vehicle:         FromVehicle(c.Vehicle),
		Requests:        FromRequests(c.Requests),
	}
}

func FromCarpools(cs []models.Carpool) []*Carpool {
	out := make([]*Carpool, 0, len(cs))
	for i := range cs {
		out = append(out, FromCarpool(&cs[i]))
	}
	return out
}

func FromGroup(g *models.Group) *Group {
	if g == nil {
		return nil
	}
	out := &Group{
		ID:                g.ID,
		Name:              g.Name,
		SchoolID:          g.SchoolID,
		CommunityCenterID: g.CommunityCenterID,
		CreatedAt:         formatTime(g.CreatedAt),
		Members:           make([]*User, 0, len(g.Members)),
	}
	for _, m := range g.Members {
		if m.User != nil {
			out.Members = append(out.Members, FromUser(m.User))
		}
	}
	return out
}

func FromMessage(m *models.Message) *Message {
	if m == nil {
		return nil
	}
	return &Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Text:        m.Text,
		CreatedAt:   formatTime(m.CreatedAt),
		Sender:      FromUser(m.Sender),
		Recipient:   FromUser(m.Recipient),
	}
}

func FromFriend(f *models.Friend) *Friendship {
	if f == nil {
		return nil
	}
	return &Friendship{
		ID:        f.ID,
		UserID:    f.UserID,
		CreatedAt: formatTime(f.CreatedAt),
		Friend:    FromUser(f.Friend),
	}
}

func FromGroupMessage(m *models.GroupMessage) *GroupMessage {
	if m == nil {
		return nil
	}
	return &GroupMessage{
		ID:        m.ID,
		GroupID:   m.GroupID,
		Message:   m.Message,
		CreatedAt: formatTime(m.CreatedAt),
		Sender:    FromUser(m.Sender),
	}
}

func FromSchool(s *models.School) *School {
	return &School{
		ID:             s.ID,
		DistrictNumber: int32(s.DistrictNumber),
		Name:           s.Name,
		Address:        s.Address,
		City:           s.City,
	}
}

func FromPreferences(p *models.NotificationPreference) *NotificationPreferences {
	return &NotificationPreferences{
		PushEnabled: p.PushEnabled,
		TripAlerts:  p.TripAlerts,
		ChatAlerts:  p.ChatAlerts,
	}
}
