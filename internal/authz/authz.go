// Package authz holds the role based authorization rules as pure predicates.
package authz

import "github.com/noah-isme/elearning-api/internal/models"

// Action names an operation subject to authorization.
type Action string

const (
	ActionSubmitAnswers       Action = "lesson.submit_answers"
	ActionViewOwnResult       Action = "lesson.view_own_result"
	ActionViewLessonResults   Action = "lesson.view_results"
	ActionExportLessonResults Action = "lesson.export_results"
	ActionViewProfile         Action = "user.view_profile"
)

var rules = map[Action]func(models.UserRole) bool{
	ActionSubmitAnswers:       isStudent,
	ActionViewOwnResult:       isStudent,
	ActionViewLessonResults:   isStaffMember,
	ActionExportLessonResults: isStaffMember,
	ActionViewProfile:         isAuthenticated,
}

// Can reports whether role may perform action. Unknown actions are denied.
func Can(role models.UserRole, action Action) bool {
	rule, ok := rules[action]
	if !ok {
		return false
	}
	return rule(role)
}

// CanManageLesson reports whether the caller may see every student's results of a lesson.
// Admins see all lessons; teachers only the lessons they author.
func CanManageLesson(claims *models.JWTClaims, lesson *models.Lesson) bool {
	if claims == nil || lesson == nil {
		return false
	}
	switch claims.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return lesson.TeacherID == claims.UserID
	}
	return false
}

func isStudent(r models.UserRole) bool { return r == models.RoleStudent }

func isStaffMember(r models.UserRole) bool { return r == models.RoleTeacher || r == models.RoleAdmin }

func isAuthenticated(r models.UserRole) bool { return r.Valid() }
