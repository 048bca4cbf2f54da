package models

// Booking is a persisted booking as returned by the upstream booking API.
type Booking struct {
	ID        string `json:"id"`
	AdBoardID string `json:"adBoardId"`
	AdID      string `json:"adId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Draft is an in-progress booking edit. It is sent to the upstream API as-is.
type Draft struct {
	ID        string `json:"id"`
	AdBoardID string `json:"adBoardId" validate:"required"`
	AdID      string `json:"adId"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

// DraftFromBooking seeds a draft from an existing booking, keeping its identifier.
func DraftFromBooking(b Booking) Draft {
	return Draft{
		ID:        b.ID,
		AdBoardID: b.AdBoardID,
		AdID:      b.AdID,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
	}
}

// DateLayout is the ISO calendar date format used for draft bounds.
const DateLayout = "2006-01-02"
