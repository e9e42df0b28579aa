package models

import "time"

// Group ties parents together around a school or a community center.
type Group struct {
	ID                string           `gorm:"primaryKey" json:"id"`
	Name              string           `gorm:"not null" json:"name"`
	SchoolID          *string          `gorm:"index" json:"schoolId,omitempty"`
	CommunityCenterID *string          `gorm:"index" json:"communityCenterId,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	School            *School          `gorm:"foreignKey:SchoolID;constraint:OnDelete:SET NULL" json:"school,omitempty"`
	CommunityCenter   *CommunityCenter `gorm:"foreignKey:CommunityCenterID;constraint:OnDelete:SET NULL" json:"communityCenter,omitempty"`
	Members           []GroupMember    `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupMember is the users_to_groups join row. Removing either side removes the row.
type GroupMember struct {
	GroupID   string    `gorm:"primaryKey" json:"groupId"`
	UserID    string    `gorm:"primaryKey" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (GroupMember) TableName() string {
	return "users_to_groups"
}

type School struct {
	ID             string `gorm:"primaryKey" json:"id"`
	DistrictNumber int    `json:"districtNumber"`
	Name           string `gorm:"index;not null" json:"name"`
	Address        string `json:"address"`
	City           string `json:"city"`
}

func (School) TableName() string {
	return "schools"
}

type CommunityCenter struct {
	ID      string  `gorm:"primaryKey" json:"id"`
	Name    string  `gorm:"not null" json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (CommunityCenter) TableName() string {
	return "community_centers"
}
