// Package dto holds the typed request and response shapes of every API
// operation. Field names mirror the GraphQL schema so graphql-go can resolve
// them directly.
package dto

type User struct {
	ID                string  `json:"id"`
	FirstName         string  `json:"firstName"`
	LastName          *string `json:"lastName"`
	Email             string  `json:"email"`
	PhoneNumber       *string `json:"phoneNumber"`
	City              *string `json:"city"`
	ImageURL          *string `json:"imageUrl"`
	LicenseImageURL   *string `json:"licenseImageUrl"`
	InsuranceImageURL *string `json:"insuranceImageUrl"`
	ExpoPushToken     *string `json:"-"`
	CreatedAt         string  `json:"createdAt"`
}

type Vehicle struct {
	ID              string  `json:"id"`
	UserID          string  `json:"userId"`
	Make            string  `json:"make"`
	Model           string  `json:"model"`
	Year            string  `json:"year"`
	LicensePlate    string  `json:"licensePlate"`
	Color           string  `json:"color"`
	Seats           int32   `json:"seats"`
	VehicleImageURL *string `json:"vehicleImageUrl"`
}

type Child struct {
	ID                 string  `json:"id"`
	UserID             string  `json:"userId"`
	FirstName          string  `json:"firstName"`
	LastName           *string `json:"lastName"`
	SchoolID           *string `json:"schoolId"`
	SchoolEmailAddress *string `json:"schoolEmailAddress"`
	ImageURL           *string `json:"imageUrl"`
	CreatedAt          string  `json:"createdAt"`
	Parent             *User   `json:"parent"`
}

type Request struct {
	ID              string   `json:"id"`
	CarpoolID       *string  `json:"carpoolId"`
	ParentID        string   `json:"parentId"`
	GroupID         string   `json:"groupId"`
	IsApproved      bool     `json:"isApproved"`
	StartingAddress string   `json:"startingAddress"`
	EndingAddress   string   `json:"endingAddress"`
	StartingLat     float64  `json:"startingLat"`
	StartingLon     float64  `json:"startingLon"`
	EndingLat       float64  `json:"endingLat"`
	EndingLon       float64  `json:"endingLon"`
	PickupTime      string   `json:"pickupTime"`
	CreatedAt       string   `json:"createdAt"`
	Children        []*Child `json:"children"`
	Parent          *User    `json:"parent"`
	// Driver is the counterpart once the request is matched.
	Driver *User `json:"driver"`
}

type Carpool struct {
	ID              string     `json:"id"`
	DriverID        string     `json:"driverId"`
	VehicleID       string     `json:"vehicleId"`
	GroupID         string     `json:"groupId"`
	StartAddress    string     `json:"startAddress"`
	EndAddress      string     `json:"endAddress"`
	StartLat        float64    `json:"startLat"`
	StartLon        float64    `json:"startLon"`
	EndLat          float64    `json:"endLat"`
	EndLon          float64    `json:"endLon"`
	DepartureDate   string     `json:"departureDate"`
	DepartureTime   string     `json:"departureTime"`
	ExtraCarSeat    bool       `json:"extraCarSeat"`
	WinterTires     bool       `json:"winterTires"`
	TripPreferences *string    `json:"tripPreferences"`
	EstimatedTime   *string    `json:"estimatedTime"`
	CreatedAt       string     `json:"createdAt"`
	Driver          *User      `json:"driver"`
	Vehicle         *Vehicle   `json:"vehicle"`
	Requests        []*Request `json:"requests"`
}

type UserCarpoolsAndRequests struct {
	Carpools []*Carpool `json:"carpools"`
	Requests []*Request `json:"requests"`
}

type Group struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	SchoolID          *string `json:"schoolId"`
	CommunityCenterID *string `json:"communityCenterId"`
	CreatedAt         string  `json:"createdAt"`
	Members           []*User `json:"members"`
}

type Message struct {
	ID          string `json:"id"`
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
	CreatedAt   string `json:"createdAt"`
	Sender      *User  `json:"sender"`
	Recipient   *User  `json:"recipient"`
}

// Conversation is one inbox entry of getConversationsForUser.
type Conversation struct {
	RecipientID   string     `json:"recipientId"`
	RecipientName string     `json:"recipientName"`
	Recipient     *User      `json:"recipient"`
	Messages      []*Message `json:"messages"`
}

type Friendship struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
	Friend    *User  `json:"friend"`
}

type GroupMessage struct {
	ID        string `json:"id"`
	GroupID   string `json:"groupId"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
	Sender    *User  `json:"sender"`
}

type CommunityCenter struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Distance float64 `json:"distance"`
}

type School struct {
	ID             string `json:"id"`
	DistrictNumber int32  `json:"districtNumber"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	City           string `json:"city"`
}

type NotificationPreferences struct {
	PushEnabled bool `json:"pushEnabled"`
	TripAlerts  bool `json:"tripAlerts"`
	ChatAlerts  bool `json:"chatAlerts"`
}

type NextStop struct {
	Address   string `json:"address"`
	RequestID string `json:"requestId"`
}

// LocationData is published to every rider on each position report.
type LocationData struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	CarpoolID string    `json:"carpoolId"`
	DriverID  string    `json:"driverId"`
	SenderID  string    `json:"senderId"`
	Timestamp string    `json:"timestamp"`
	NextStop  *NextStop `json:"nextStop"`
}

// ForegroundNotification mirrors a push for clients that have the app open.
type ForegroundNotification struct {
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	SenderID  string  `json:"senderId"`
	Type      *string `json:"type"`
	CarpoolID *string `json:"carpoolId"`
}
