package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool `json:"success"`
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seedUser(t *testing.T, stack *testStack) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.New(), Email: "ada@example.com", Phone: "+15551234567"}
	require.NoError(t, stack.db.Create(u).Error)
	return u
}

func TestSubmit_HappyPathReturns201(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)
	u := seedUser(t, stack)

	rec := doJSON(t, router, http.MethodPost, "/notifications", gin.H{
		"user_id": u.ID,
		"channel": "email",
		"content": "hello",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
}

func TestSubmit_UnknownUserReturns400(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)

	rec := doJSON(t, router, http.MethodPost, "/notifications", gin.H{
		"user_id": uuid.New(),
		"channel": "email",
		"content": "hello",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmit_MissingRequiredFieldReturns400(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)

	rec := doJSON(t, router, http.MethodPost, "/notifications", gin.H{
		"channel": "email",
		"content": "hello",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmit_DuplicateEventIDReturns409(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)
	u := seedUser(t, stack)

	payload := gin.H{
		"user_id":  u.ID,
		"channel":  "email",
		"content":  "hello",
		"event_id": "evt-dup",
	}
	first := doJSON(t, router, http.MethodPost, "/notifications", payload)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(t, router, http.MethodPost, "/notifications", payload)
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestGet_RoundTripsSubmittedNotification(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)
	u := seedUser(t, stack)

	submit := doJSON(t, router, http.MethodPost, "/notifications", gin.H{
		"user_id": u.ID,
		"channel": "email",
		"content": "hello",
	})
	require.Equal(t, http.StatusCreated, submit.Code)

	var submitBody struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(submit.Body.Bytes(), &submitBody))

	get := doJSON(t, router, http.MethodGet, "/notifications/"+submitBody.Data.ID.String(), nil)
	assert.Equal(t, http.StatusOK, get.Code)
}

func TestGet_UnknownIDReturns404(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)

	rec := doJSON(t, router, http.MethodGet, "/notifications/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGet_MalformedIDReturns400(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)

	rec := doJSON(t, router, http.MethodGet, "/notifications/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListForUser_ReturnsOnlyThatUsersRows(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)
	u := seedUser(t, stack)
	other := seedUser(t, stack)

	for range 2 {
		r := doJSON(t, router, http.MethodPost, "/notifications", gin.H{"user_id": u.ID, "channel": "email", "content": "x"})
		require.Equal(t, http.StatusCreated, r.Code)
	}
	r := doJSON(t, router, http.MethodPost, "/notifications", gin.H{"user_id": other.ID, "channel": "email", "content": "y"})
	require.Equal(t, http.StatusCreated, r.Code)

	list := doJSON(t, router, http.MethodGet, "/notifications/user/"+u.ID.String(), nil)
	assert.Equal(t, http.StatusOK, list.Code)

	var listBody struct {
		Data struct {
			Items []map[string]any `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &listBody))
	assert.Len(t, listBody.Data.Items, 2)
}

func TestBulk_PartialFailureReportsBoth(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)
	u := seedUser(t, stack)

	rec := doJSON(t, router, http.MethodPost, "/notifications/bulk", gin.H{
		"user_ids": []uuid.UUID{u.ID, uuid.New()},
		"channel":  "email",
		"content":  "hello",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			SuccessCount int `json:"success_count"`
			FailedCount  int `json:"failed_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.SuccessCount)
	assert.Equal(t, 1, body.Data.FailedCount)
}
