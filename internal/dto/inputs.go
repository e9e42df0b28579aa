package dto

type CreateCarpoolInput struct {
	DriverID        string   `json:"driverId"`
	VehicleID       string   `json:"vehicleId"`
	GroupID         string   `json:"groupId"`
	StartAddress    string   `json:"startAddress"`
	EndAddress      string   `json:"endAddress"`
	StartLat        float64  `json:"startLat"`
	StartLon        float64  `json:"startLon"`
	EndLat          float64  `json:"endLat"`
	EndLon          float64  `json:"endLon"`
	DepartureDate   string   `json:"departureDate"`
	DepartureTime   string   `json:"departureTime"`
	ExtraCarSeat    *bool    `json:"extraCarSeat"`
	WinterTires     *bool    `json:"winterTires"`
	TripPreferences *string  `json:"tripPreferences"`
	EstimatedTime   *string  `json:"estimatedTime"`
	RequestIDs      []string `json:"requestIds"`
	DriverChildIDs  []string `json:"driverChildIds"`
}

type CreateRequestInput struct {
	ParentID        string   `json:"parentId"`
	ChildIDs        []string `json:"childIds"`
	GroupID         string   `json:"groupId"`
	StartingAddress string   `json:"startingAddress"`
	EndingAddress   string   `json:"endingAddress"`
	StartingLat     float64  `json:"startingLat"`
	StartingLon     float64  `json:"startingLon"`
	EndingLat       float64  `json:"endingLat"`
	EndingLon       float64  `json:"endingLon"`
	PickupTime      string   `json:"pickupTime"`
}

type NextStopInput struct {
	Address   string `json:"address"`
	RequestID string `json:"requestId"`
}

// LocationReport is one driver position sample for a carpool in progress.
type LocationReport struct {
	CarpoolID          string        `json:"carpoolId"`
	Lat                float64       `json:"lat"`
	Lon                float64       `json:"lon"`
	NextStop           NextStopInput `json:"nextStop"`
	TimeToNextStop     string        `json:"timeToNextStop"`
	TotalTime          string        `json:"totalTime"`
	TimeUntilNextStop  string        `json:"timeUntilNextStop"`
	IsLeaving          bool          `json:"isLeaving"`
	IsFinalDestination bool          `json:"isFinalDestination"`
}

// NotificationType names a trip lifecycle event.
type NotificationType string

const (
	NotificationLeaving          NotificationType = "LEAVING"
	NotificationNearStop         NotificationType = "NEAR_STOP"
	NotificationFinalDestination NotificationType = "FINAL_DESTINATION"
)

// NotificationInfo asks the tracker to fire one named event explicitly.
type NotificationInfo struct {
	CarpoolID          string           `json:"carpoolId"`
	NotificationType   NotificationType `json:"notificationType"`
	Lat                float64          `json:"lat"`
	Lon                float64          `json:"lon"`
	NextStop           NextStopInput    `json:"nextStop"`
	TimeToNextStop     string           `json:"timeToNextStop"`
	TimeUntilNextStop  string           `json:"timeUntilNextStop"`
	IsFinalDestination bool             `json:"isFinalDestination"`
}

type CreateUserInput struct {
	FirstName         string  `json:"firstName"`
	LastName          *string `json:"lastName"`
	Email             *string `json:"email"`
	PhoneNumber       *string `json:"phoneNumber"`
	City              *string `json:"city"`
	ImageURL          *string `json:"imageUrl"`
	LicenseImageURL   *string `json:"licenseImageUrl"`
	InsuranceImageURL *string `json:"insuranceImageUrl"`
}

type UpdateUserInput struct {
	FirstName         *string `json:"firstName"`
	LastName          *string `json:"lastName"`
	Email             *string `json:"email"`
	PhoneNumber       *string `json:"phoneNumber"`
	City              *string `json:"city"`
	ImageURL          *string `json:"imageUrl"`
	LicenseImageURL   *string `json:"licenseImageUrl"`
	InsuranceImageURL *string `json:"insuranceImageUrl"`
}

type CreateGroupInput struct {
	Name              string  `json:"name"`
	SchoolID          *string `json:"schoolId"`
	CommunityCenterID *string `json:"communityCenterId"`
}

type CreateVehicleInput struct {
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Year         string  `json:"year"`
	LicensePlate string  `json:"licensePlate"`
	Seats        int32   `json:"seats"`
	Color        string  `json:"color"`
	ImageURL     *string `json:"imageUrl"`
}

type CreateChildInput struct {
	FirstName          string  `json:"firstName"`
	LastName           *string `json:"lastName"`
	SchoolID           *string `json:"schoolId"`
	SchoolEmailAddress *string `json:"schoolEmailAddress"`
	ImageURL           *string `json:"imageUrl"`
}

type PreferencesInput struct {
	PushEnabled *bool `json:"pushEnabled"`
	TripAlerts  *bool `json:"tripAlerts"`
	ChatAlerts  *bool `json:"chatAlerts"`
}
