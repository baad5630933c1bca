package models

// AdminStats is the aggregate snapshot served to admins and directors.
// MoodCounts covers reports from the last 7 days and sums to RecentReportsCount.
type AdminStats struct {
	TotalStudents      int          `json:"total_students"`
	TotalTeachers      int          `json:"total_teachers"`
	TotalParents       int          `json:"total_parents"`
	TotalClasses       int          `json:"total_classes"`
	TotalReports       int          `json:"total_reports"`
	RecentReportsCount int          `json:"recent_reports_count"`
	MoodCounts         map[Mood]int `json:"mood_counts"`
}
