package access

import "github.com/maminech/smartkid-api/internal/models"

// Role capability checks. Callers never gain capabilities beyond their role;
// ownership narrowing on top of these lives in Entitlements and the
// author/creator checks below.

// CanManageStudents reports whether the role may create or edit students.
func CanManageStudents(role models.UserRole) bool {
	return role == models.RoleTeacher || role == models.RoleDirector || role == models.RoleAdmin
}

// CanDeleteStudents reports whether the role may delete students.
func CanDeleteStudents(role models.UserRole) bool {
	return role == models.RoleDirector || role == models.RoleAdmin
}

// CanMarkAttendance reports whether the role may record attendance.
// Directors are allowed per the capability matrix.
func CanMarkAttendance(role models.UserRole) bool {
	return role == models.RoleTeacher || role == models.RoleDirector
}

// CanAuthorReports reports whether the role may create daily reports.
func CanAuthorReports(role models.UserRole) bool {
	return role == models.RoleTeacher
}

// CanEditReport reports whether the caller may update the given report.
// Teachers may only touch reports they authored.
func CanEditReport(caller models.Identity, report *models.Report) bool {
	return caller.Role == models.RoleTeacher && report.TeacherID == caller.UserID
}

// CanCreateMilestones reports whether the role may create milestones.
func CanCreateMilestones(role models.UserRole) bool {
	return role == models.RoleTeacher || role == models.RoleDirector || role == models.RoleAdmin
}

// CanEditMilestone reports whether the caller may update the given milestone.
// Teachers may only touch milestones they created; directors and admins any.
func CanEditMilestone(caller models.Identity, milestone *models.Milestone) bool {
	switch caller.Role {
	case models.RoleDirector, models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return milestone.TeacherID == caller.UserID
	}
	return false
}

// CanCreateBadges reports whether the role may create badge templates.
func CanCreateBadges(role models.UserRole) bool {
	return role == models.RoleTeacher || role == models.RoleDirector || role == models.RoleAdmin
}

// CanAwardBadges reports whether the role may award badges to students.
func CanAwardBadges(role models.UserRole) bool {
	return role == models.RoleTeacher || role == models.RoleDirector
}

// CanManageClasses reports whether the role may create classes.
func CanManageClasses(role models.UserRole) bool {
	return role == models.RoleDirector || role == models.RoleAdmin
}

// CanManageRoadmaps reports whether the role may create roadmap templates,
// stages, assignments and progress updates.
func CanManageRoadmaps(role models.UserRole) bool {
	return role == models.RoleTeacher || role == models.RoleDirector
}

// CanViewAdmin reports whether the role may read admin stats and user lists.
func CanViewAdmin(role models.UserRole) bool {
	return role == models.RoleAdmin || role == models.RoleDirector
}

// CanCreateUsers reports whether the role may create users directly.
func CanCreateUsers(role models.UserRole) bool {
	return role == models.RoleAdmin
}
