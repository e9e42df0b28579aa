package models

import "time"

type Vehicle struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"index;not null" json:"userId"`
	Make         string    `gorm:"not null" json:"make"`
	Model        string    `gorm:"not null" json:"model"`
	Year         string    `json:"year"`
	LicensePlate string    `json:"licensePlate"`
	Color        string    `json:"color"`
	Seats        int       `gorm:"not null;check:seats > 0" json:"seats"`
	ImageURL     string    `json:"vehicleImageUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	Owner        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

// Capacity is the number of riders the vehicle can take on a trip.
func (v *Vehicle) Capacity(extraSeat bool) int {
	if extraSeat {
		return v.Seats + 1
	}
	return v.Seats
}
