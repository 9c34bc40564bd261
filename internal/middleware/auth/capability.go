package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/feedback-service/internal/models"
)

// Action names a privileged operation. Handlers ask Can instead of
// comparing role strings inline.
type Action string

const (
	ActionManageCourses  Action = "manage_courses"
	ActionManageStudents Action = "manage_students"
	ActionViewAllStats   Action = "view_all_stats"
	ActionSubmitFeedback Action = "submit_feedback"
)

var capabilities = map[string]map[Action]bool{
	models.RoleAdmin: {
		ActionManageCourses:  true,
		ActionManageStudents: true,
		ActionViewAllStats:   true,
	},
	models.RoleStudent: {
		ActionSubmitFeedback: true,
	},
}

func Can(role string, action Action) bool {
	return capabilities[role][action]
}

// RequireCapability gates a route on a capability rather than a role name,
// so adding a role never means hunting down string comparisons.
func RequireCapability(action Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !Can(ident.Role, action) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
