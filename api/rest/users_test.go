package rest_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMyProfile(t *testing.T) {
	r, _ := newAPISetup(t)
	token, userID := loginAs(t, r, "alice")

	w := getAuth(r, "/api/me/profile", token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)

	u := resp["user"].(map[string]interface{})
	assert.Equal(t, "alice", u["username"])
	assert.Equal(t, float64(userID), u["id"])

	p := resp["profile"].(map[string]interface{})
	assert.Equal(t, false, p["hidden"])
	assert.Equal(t, float64(5), p["daily_goal"])
}

func TestUpdateMyProfile(t *testing.T) {
	r, _ := newAPISetup(t)
	token, _ := loginAs(t, r, "alice")

	w := patchJSON(r, "/api/me/profile", map[string]interface{}{
		"hidden":     true,
		"daily_goal": 10,
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = getAuth(r, "/api/me/profile", token)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode(t, w)["profile"].(map[string]interface{})
	assert.Equal(t, true, p["hidden"])
	assert.Equal(t, float64(10), p["daily_goal"])
}

func TestUpdateMyProfile_InvalidGoal(t *testing.T) {
	r, _ := newAPISetup(t)
	token, _ := loginAs(t, r, "alice")

	w := patchJSON(r, "/api/me/profile", map[string]interface{}{
		"daily_goal": 0,
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserProfile_Stranger(t *testing.T) {
	r, _ := newAPISetup(t)
	aliceToken, _ := loginAs(t, r, "alice")
	_, bobID := loginAs(t, r, "bob")

	w := getAuth(r, fmt.Sprintf("/api/users/%d/profile", bobID), aliceToken)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "bob", resp["username"])
	rel := resp["relationship"].(map[string]interface{})
	assert.Equal(t, "STRANGER", rel["status"])
	assert.Equal(t, true, rel["profile_visible"])
	// Visible profile exposes the full shape.
	assert.Contains(t, resp, "daily_goal")
}

func TestUserProfile_HiddenIsRestricted(t *testing.T) {
	r, _ := newAPISetup(t)
	aliceToken, _ := loginAs(t, r, "alice")
	bobToken, bobID := loginAs(t, r, "bob")

	w := patchJSON(r, "/api/me/profile", map[string]interface{}{"hidden": true}, bobToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = getAuth(r, fmt.Sprintf("/api/users/%d/profile", bobID), aliceToken)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "bob", resp["username"])
	rel := resp["relationship"].(map[string]interface{})
	assert.Equal(t, false, rel["profile_visible"])
	// Restricted shape hides everything but the name and the relationship.
	assert.NotContains(t, resp, "daily_goal")
}

func TestUserProfile_BlockedViewerIsRestricted(t *testing.T) {
	r, _ := newAPISetup(t)
	aliceToken, _ := loginAs(t, r, "alice")
	bobToken, bobID := loginAs(t, r, "bob")

	// Bob blocks Alice; Alice's view of Bob collapses to the restricted shape.
	w := getAuth(r, fmt.Sprintf("/api/users/%d/profile", bobID), aliceToken)
	require.Equal(t, http.StatusOK, w.Code)

	var aliceID int64
	resp := decode(t, getAuth(r, "/api/me/profile", aliceToken))
	aliceID = int64(resp["user"].(map[string]interface{})["id"].(float64))

	w = postJSON(r, fmt.Sprintf("/api/relationships/block/%d", aliceID), nil,
		"Authorization", "Bearer "+bobToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = getAuth(r, fmt.Sprintf("/api/users/%d/profile", bobID), aliceToken)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	rel := resp["relationship"].(map[string]interface{})
	assert.Equal(t, false, rel["profile_visible"])
	assert.Equal(t, false, rel["accepts_friend_requests"])
	assert.NotContains(t, resp, "daily_goal")
}

func TestUserProfile_UnknownUser(t *testing.T) {
	r, _ := newAPISetup(t)
	token, _ := loginAs(t, r, "alice")

	w := getAuth(r, "/api/users/99999/profile", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
