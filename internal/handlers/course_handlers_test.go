package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	authmw "github.com/coursehub/feedback-service/internal/middleware/auth"
	"github.com/coursehub/feedback-service/internal/models"
)

func TestAdminCreatesCourse(t *testing.T) {
	env := newTestEnv(t)
	adminToken := loginAdmin(t, env)

	create := authmw.RequireCapability(authmw.ActionManageCourses)(env.Course.CreateCourse)
	body := map[string]string{"code": "CS101", "name": "Intro to CS", "description": "basics"}

	rec, err := env.doAuthedRequest(http.MethodPost, "/api/courses", adminToken, body, create)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)

	var course models.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &course))
	require.Equal(t, "CS101", course.Code)
	require.NotZero(t, course.ID)

	// duplicate code conflicts
	_, err = env.doAuthedRequest(http.MethodPost, "/api/courses", adminToken, body, create)
	requireHTTPError(t, err, http.StatusConflict)
}

func TestStudentCannotWriteCourses(t *testing.T) {
	env := newTestEnv(t)
	studentToken, _ := signup(t, env, "A", "a@x.com", "Abc12345!")

	create := authmw.RequireCapability(authmw.ActionManageCourses)(env.Course.CreateCourse)
	body := map[string]string{"code": "CS101", "name": "Intro to CS"}

	_, err := env.doAuthedRequest(http.MethodPost, "/api/courses", studentToken, body, create)
	requireHTTPError(t, err, http.StatusForbidden)

	update := authmw.RequireCapability(authmw.ActionManageCourses)(env.Course.UpdateCourse)
	_, err = env.doAuthedRequest(http.MethodPut, "/api/courses/1", studentToken, body, update, "id", "1")
	requireHTTPError(t, err, http.StatusForbidden)

	del := authmw.RequireCapability(authmw.ActionManageCourses)(env.Course.DeleteCourse)
	_, err = env.doAuthedRequest(http.MethodDelete, "/api/courses/1", studentToken, nil, del, "id", "1")
	requireHTTPError(t, err, http.StatusForbidden)
}

func TestAnyAuthenticatedUserListsCourses(t *testing.T) {
	env := newTestEnv(t)
	studentToken, _ := signup(t, env, "A", "a@x.com", "Abc12345!")

	require.NoError(t, env.DB.Create(&models.Course{Code: "CS101", Name: "Intro"}).Error)
	require.NoError(t, env.DB.Create(&models.Course{Code: "CS202", Name: "Algorithms"}).Error)

	rec, err := env.doAuthedRequest(http.MethodGet, "/api/courses", studentToken, nil, env.Course.ListCourses)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var courses []models.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
	require.Len(t, courses, 2)
}

func TestAdminUpdatesCourse(t *testing.T) {
	env := newTestEnv(t)
	adminToken := loginAdmin(t, env)

	course := models.Course{Code: "CS101", Name: "Intro", Description: "old"}
	require.NoError(t, env.DB.Create(&course).Error)

	update := authmw.RequireCapability(authmw.ActionManageCourses)(env.Course.UpdateCourse)
	body := map[string]string{"name": "Intro to CS", "description": "new"}

	rec, err := env.doAuthedRequest(http.MethodPut, "/api/courses/1", adminToken, body, update, "id", "1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, "Intro to CS", updated.Name)
	require.Equal(t, "new", updated.Description)
	require.Equal(t, "CS101", updated.Code)
}

func TestUpdateMissingCourseIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	adminToken := loginAdmin(t, env)

	update := authmw.RequireCapability(authmw.ActionManageCourses)(env.Course.UpdateCourse)
	body := map[string]string{"name": "X"}

	_, err := env.doAuthedRequest(http.MethodPut, "/api/courses/99", adminToken, body, update, "id", "99")
	requireHTTPError(t, err, http.StatusNotFound)
}

func TestAdminDeletesCourse(t *testing.T) {
	env := newTestEnv(t)
	adminToken := loginAdmin(t, env)

	course := models.Course{Code: "CS101", Name: "Intro"}
	require.NoError(t, env.DB.Create(&course).Error)

	del := authmw.RequireCapability(authmw.ActionManageCourses)(env.Course.DeleteCourse)
	rec, err := env.doAuthedRequest(http.MethodDelete, "/api/courses/1", adminToken, nil, del, "id", "1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Course{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}
