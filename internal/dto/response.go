package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// MetricsResponse represents aggregate service metrics
type MetricsResponse struct {
	TotalEvents       int64 `json:"total_events"`
	TotalBookings     int64 `json:"total_bookings"`
	ActiveHolds       int64 `json:"active_holds"`
	TotalSeatsBooked  int64 `json:"total_seats_booked"`
	ExpiredHoldsTotal int64 `json:"expired_holds_total"`
}

