package model

import "time"

// Client is a fleet customer. Trucks belong to exactly one client.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName returns "Name Surname".
func (c Client) FullName() string {
	if c.Surname == "" {
		return c.Name
	}
	return c.Name + " " + c.Surname
}

// Truck is a vehicle owned by a client.
type Truck struct {
	ID           int64     `json:"id"`
	Model        string    `json:"model"`
	VINCode      string    `json:"vin_code"`
	LicensePlate string    `json:"license_plate"`
	ClientID     int64     `json:"client"`
	CreatedAt    time.Time `json:"created_at"`
}

// Label is the display form used in selection lists.
func (t Truck) Label() string {
	return t.Model + " (" + t.LicensePlate + ")"
}
