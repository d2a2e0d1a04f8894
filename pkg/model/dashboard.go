package model

type DashboardCounts struct {
	Services          int `json:"services"`
	ActiveServices    int `json:"activeServices"`
	Technicians       int `json:"technicians"`
	ActiveTechnicians int `json:"activeTechnicians"`
	Bookings          int `json:"bookings"`
}

type DashboardSummary struct {
	Counts         DashboardCounts       `json:"counts"`
	StatusCounts   map[BookingStatus]int `json:"statusCounts"`
	RecentBookings []*BookingView        `json:"recentBookings"`
}
