package models

import "time"

// Carpool is one scheduled trip: a driver, their vehicle and the approved
// requests it absorbed.
type Carpool struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	DriverID        string    `gorm:"index;not null" json:"driverId"`
	VehicleID       string    `gorm:"not null" json:"vehicleId"`
	GroupID         string    `gorm:"index;not null" json:"groupId"`
	StartAddress    string    `gorm:"not null" json:"startAddress"`
	EndAddress      string    `gorm:"not null" json:"endAddress"`
	StartLat        float64   `json:"startLat"`
	StartLon        float64   `json:"startLon"`
	EndLat          float64   `json:"endLat"`
	EndLon          float64   `json:"endLon"`
	DepartureDate   string    `gorm:"not null" json:"departureDate"`
	DepartureTime   string    `gorm:"not null" json:"departureTime"`
	ExtraCarSeat    bool      `gorm:"not null;default:false" json:"extraCarSeat"`
	WinterTires     bool      `gorm:"not null;default:false" json:"winterTires"`
	TripPreferences *string   `json:"tripPreferences,omitempty"`
	EstimatedTime   *string   `json:"estimatedTime,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`

	Driver   *User     `gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE" json:"driver,omitempty"`
	Vehicle  *Vehicle  `gorm:"foreignKey:VehicleID;constraint:OnDelete:RESTRICT" json:"vehicle,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Requests []Request `gorm:"foreignKey:CarpoolID" json:"requests,omitempty"`
}

func (Carpool) TableName() string {
	return "carpools"
}

// Request is a parent's ask for a ride. CarpoolID stays nil until a driver
// absorbs it; after that it never changes.
type Request struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	CarpoolID       *string   `gorm:"index" json:"carpoolId,omitempty"`
	ParentID        string    `gorm:"index;not null" json:"parentId"`
	GroupID         string    `gorm:"index;not null" json:"groupId"`
	IsApproved      bool      `gorm:"not null;default:false" json:"isApproved"`
	StartingAddress string    `gorm:"not null" json:"startingAddress"`
	EndingAddress   string    `gorm:"not null" json:"endingAddress"`
	StartingLat     float64   `json:"startingLat"`
	StartingLon     float64   `json:"startingLon"`
	EndingLat       float64   `json:"endingLat"`
	EndingLon       float64   `json:"endingLon"`
	PickupTime      time.Time `gorm:"index" json:"pickupTime"`
	CreatedAt       time.Time `json:"createdAt"`

	Parent   *User    `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"parent,omitempty"`
	Group    *Group   `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Carpool  *Carpool `gorm:"foreignKey:CarpoolID;constraint:OnDelete:SET NULL" json:"carpool,omitempty"`
	Children []Child  `gorm:"many2many:request_children;constraint:OnDelete:CASCADE" json:"children"`
}

func (Request) TableName() string {
	return "requests"
}

// Seats is the number of rider seats the request occupies.
func (r *Request) Seats() int {
	if len(r.Children) == 0 {
		return 1
	}
	return len(r.Children)
}

func (r *Request) ChildNames() []string {
	names := make([]string, 0, len(r.Children))
	for _, c := range r.Children {
		names = append(names, c.FirstName)
	}
	return names
}
