package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	authmw "github.com/coursehub/feedback-service/internal/middleware/auth"
	"github.com/coursehub/feedback-service/internal/models"
)

func seedCourse(t *testing.T, env *testEnv) models.Course {
	t.Helper()
	course := models.Course{Code: "CS101", Name: "Intro"}
	require.NoError(t, env.DB.Create(&course).Error)
	return course
}

func TestSubmitFeedback(t *testing.T) {
	env := newTestEnv(t)
	token, _ := signup(t, env, "A", "a@x.com", "Abc12345!")
	course := seedCourse(t, env)

	body := map[string]any{"courseId": course.ID, "rating": 4, "message": "solid course"}
	rec, err := env.doAuthedRequest(http.MethodPost, "/api/feedback", token, body, env.Feedback.Submit)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)

	var fb models.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fb))
	require.Equal(t, 4, fb.Rating)
	require.Equal(t, course.ID, fb.CourseID)
}

func TestSubmitFeedbackUnknownCourse(t *testing.T) {
	env := newTestEnv(t)
	token, _ := signup(t, env, "A", "a@x.com", "Abc12345!")

	body := map[string]any{"courseId": 99, "rating": 4}
	_, err := env.doAuthedRequest(http.MethodPost, "/api/feedback", token, body, env.Feedback.Submit)
	requireHTTPError(t, err, http.StatusNotFound)
}

func TestSubmitFeedbackRatingOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	token, _ := signup(t, env, "A", "a@x.com", "Abc12345!")
	course := seedCourse(t, env)

	for _, rating := range []int{0, 6, -1} {
		body := map[string]any{"courseId": course.ID, "rating": rating}
		_, err := env.doAuthedRequest(http.MethodPost, "/api/feedback", token, body, env.Feedback.Submit)
		requireHTTPError(t, err, http.StatusBadRequest)
	}
}

func TestOwnerEditsOwnFeedback(t *testing.T) {
	env := newTestEnv(t)
	token, _ := signup(t, env, "A", "a@x.com", "Abc12345!")
	course := seedCourse(t, env)

	body := map[string]any{"courseId": course.ID, "rating": 3, "message": "ok"}
	rec, err := env.doAuthedRequest(http.MethodPost, "/api/feedback", token, body, env.Feedback.Submit)
	require.NoError(t, err)

	var fb models.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fb))

	update := map[string]any{"rating": 5, "message": "changed my mind"}
	recUpd, err := env.doAuthedRequest(http.MethodPut, "/api/feedback/1", token, update, env.Feedback.Update, "id", "1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, recUpd.Code)

	var updated models.Feedback
	require.NoError(t, json.Unmarshal(recUpd.Body.Bytes(), &updated))
	require.Equal(t, 5, updated.Rating)
	require.Equal(t, "changed my mind", updated.Message)
}

// A non-owner probing someone else's feedback must see 404, not 403, so
// record existence is not leaked.
func TestNonOwnerGetsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ownerToken, _ := signup(t, env, "A", "a@x.com", "Abc12345!")
	otherToken, _ := signup(t, env, "B", "b@x.com", "Abc12345!")
	course := seedCourse(t, env)

	body := map[string]any{"courseId": course.ID, "rating": 3}
	_, err := env.doAuthedRequest(http.MethodPost, "/api/feedback", ownerToken, body, env.Feedback.Submit)
	require.NoError(t, err)

	update := map[string]any{"rating": 1}
	_, err = env.doAuthedRequest(http.MethodPut, "/api/feedback/1", otherToken, update, env.Feedback.Update, "id", "1")
	requireHTTPError(t, err, http.StatusNotFound)

	_, err = env.doAuthedRequest(http.MethodDelete, "/api/feedback/1", otherToken, nil, env.Feedback.Delete, "id", "1")
	requireHTTPError(t, err, http.StatusNotFound)

	// still there for the owner
	var count int64
	require.NoError(t, env.DB.Model(&models.Feedback{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestOwnerDeletesOwnFeedback(t *testing.T) {
	env := newTestEnv(t)
	token, _ := signup(t, env, "A", "a@x.com", "Abc12345!")
	course := seedCourse(t, env)

	body := map[string]any{"courseId": course.ID, "rating": 3}
	_, err := env.doAuthedRequest(http.MethodPost, "/api/feedback", token, body, env.Feedback.Submit)
	require.NoError(t, err)

	rec, err := env.doAuthedRequest(http.MethodDelete, "/api/feedback/1", token, nil, env.Feedback.Delete, "id", "1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Feedback{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestMineIsScopedAndPaginated(t *testing.T) {
	env := newTestEnv(t)
	tokenA, _ := signup(t, env, "A", "a@x.com", "Abc12345!")
	tokenB, _ := signup(t, env, "B", "b@x.com", "Abc12345!")
	course := seedCourse(t, env)

	for i := 0; i < 7; i++ {
		body := map[string]any{"courseId": course.ID, "rating": 3, "message": "mine"}
		_, err := env.doAuthedRequest(http.MethodPost, "/api/feedback", tokenA, body, env.Feedback.Submit)
		require.NoError(t, err)
	}
	body := map[string]any{"courseId": course.ID, "rating": 5, "message": "other"}
	_, err := env.doAuthedRequest(http.MethodPost, "/api/feedback", tokenB, body, env.Feedback.Submit)
	require.NoError(t, err)

	rec, err := env.doAuthedRequest(http.MethodGet, "/api/feedback/mine", tokenA, nil, env.Feedback.Mine)
	require.NoError(t, err)

	var page1 []models.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page1))
	require.Len(t, page1, 5)
	for _, fb := range page1 {
		require.Equal(t, "mine", fb.Message)
	}

	rec2, err := env.doAuthedRequest(http.MethodGet, "/api/feedback/mine?page=2", tokenA, nil, env.Feedback.Mine)
	require.NoError(t, err)

	var page2 []models.Feedback
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &page2))
	require.Len(t, page2, 2)
}

func TestAdminListsFeedbackWithFilters(t *testing.T) {
	env := newTestEnv(t)
	studentToken, _ := signup(t, env, "A", "a@x.com", "Abc12345!")
	adminToken := loginAdmin(t, env)
	course := seedCourse(t, env)
	other := models.Course{Code: "CS202", Name: "Algorithms"}
	require.NoError(t, env.DB.Create(&other).Error)

	for _, submission := range []map[string]any{
		{"courseId": course.ID, "rating": 5, "message": "great"},
		{"courseId": course.ID, "rating": 2, "message": "meh"},
		{"courseId": other.ID, "rating": 5, "message": "hard"},
	} {
		_, err := env.doAuthedRequest(http.MethodPost, "/api/feedback", studentToken, submission, env.Feedback.Submit)
		require.NoError(t, err)
	}

	list := authmw.RequireRole(models.RoleAdmin)(env.Feedback.ListAll)

	rec, err := env.doAuthedRequest(http.MethodGet, "/api/feedback?rating=5", adminToken, nil, list)
	require.NoError(t, err)
	var byRating []models.Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byRating))
	require.Len(t, byRating, 2)

	rec2, err := env.doAuthedRequest(http.MethodGet, "/api/feedback?course=1", adminToken, nil, list)
	require.NoError(t, err)
	var byCourse []models.Feedback
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &byCourse))
	require.Len(t, byCourse, 2)

	// students are shut out entirely
	_, err = env.doAuthedRequest(http.MethodGet, "/api/feedback", studentToken, nil, list)
	requireHTTPError(t, err, http.StatusForbidden)
}
