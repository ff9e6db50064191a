package models

type Account struct {
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never exposed
	RegisteredBy string `json:"registered_by"`
	SelfDestruct bool   `json:"self_destruct"`
	UTMLink      string `json:"utm_link"`

	// single device slot, overwritten on every device registration
	DeviceID     string `json:"device_id,omitempty"`
	DeviceName   string `json:"device_name,omitempty"`
	TotalDevices int    `json:"total_devices"` // registration call counter, not distinct devices
}

// AccountSummary is what a registrant sees when listing its own accounts.
type AccountSummary struct {
	Email        string   `json:"email"`
	RegisteredBy string   `json:"registered_by"`
	SelfDestruct bool     `json:"self_destruct"`
	UTMLink      string   `json:"utm_link"`
	TotalDevices int      `json:"total_devices"`
	DeviceIDs    []string `json:"device_ids"`
}

func (a *Account) Summary() AccountSummary {
	ids := []string{}
	if a.DeviceID != "" {
		ids = append(ids, a.DeviceID)
	}
	return AccountSummary{
		Email:        a.Email,
		RegisteredBy: a.RegisteredBy,
		SelfDestruct: a.SelfDestruct,
		UTMLink:      a.UTMLink,
		TotalDevices: a.TotalDevices,
		DeviceIDs:    ids,
	}
}

type RegisterRequest struct {
	Email    string `form:"email" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	Person   string `form:"person" json:"person" binding:"required"`
}

type LoginRequest struct {
	Email    string `form:"email" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type DeviceInfo struct {
	Email      string `json:"email" binding:"required"`
	DeviceID   string `json:"device_id" binding:"required"`
	DeviceName string `json:"device_name" binding:"required"`
}
