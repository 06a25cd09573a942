// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/election-room/models"
	"github.com/danielhkuo/election-room/testutil"
)

func TestCreateElection(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "valid with defaults",
			body:           map[string]interface{}{"title": "Mayor", "candidates": []string{"Ann", "Ben"}},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "valid with settings",
			body: map[string]interface{}{
				"slug": "council", "title": "Council", "candidates": []string{"X", "Y", "Z"},
				"voteThreshold": 3, "entryBonus": 0, "voteCost": 10, "isVisible": false,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing title",
			body:           map[string]interface{}{"candidates": []string{"Ann"}},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Title is required",
		},
		{
			name:           "duplicate candidates",
			body:           map[string]interface{}{"title": "T", "candidates": []string{"Ann", "Ann"}},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Candidate names must be unique",
		},
		{
			name:           "negative threshold",
			body:           map[string]interface{}{"title": "T", "candidates": []string{"Ann"}, "voteThreshold": -1},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Vote threshold must be positive",
		},
		{
			name:           "reserved slug",
			body:           map[string]interface{}{"slug": "all", "title": "T", "candidates": []string{"Ann"}},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Slug is reserved",
		},
		{
			name:           "invalid json",
			body:           []int{1},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)

			w := httptest.NewRecorder()
			env.election.CreateElection(w, testutil.MakeRequest("POST", "/elections", tt.body, nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusCreated {
				var resp models.ErrorResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.Message != tt.expectedMsg {
					t.Errorf("Expected message %q, got %q", tt.expectedMsg, resp.Message)
				}
				return
			}

			var e models.Election
			testutil.AssertJSON(t, w, &e)
			if e.ID == "" || e.Status != models.StatusOpen || len(e.Votes) != len(e.Candidates) {
				t.Errorf("Unexpected election: %+v", e)
			}
		})
	}
}

func TestListElections(t *testing.T) {
	env := setupEnv(t)
	testutil.CreateTestElection(t, env.db, testutil.ElectionOptions{Slug: "1"})
	testutil.CreateTestElection(t, env.db, testutil.ElectionOptions{Slug: "2", Hidden: true})

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		expected int
	}{
		{"visible only", env.election.ListVisible, 1},
		{"all", env.election.ListAll, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, testutil.MakeRequest("GET", "/elections", nil, nil))

			testutil.AssertStatus(t, w, http.StatusOK)
			var elections []models.Election
			testutil.AssertJSON(t, w, &elections)
			if len(elections) != tt.expected {
				t.Errorf("Expected %d elections, got %d", tt.expected, len(elections))
			}
		})
	}
}

func TestGetElection(t *testing.T) {
	env := setupEnv(t)
	id := testutil.CreateTestElection(t, env.db, testutil.ElectionOptions{Slug: "1"})

	for _, ref := range []string{id, "1"} {
		req := testutil.MakeRequest("GET", "/elections/"+ref, nil, nil)
		req.SetPathValue("id", ref)
		w := httptest.NewRecorder()
		env.election.GetElection(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var e models.Election
		testutil.AssertJSON(t, w, &e)
		if e.ID != id {
			t.Errorf("GetElection(%q) returned %s", ref, e.ID)
		}
	}

	req := testutil.MakeRequest("GET", "/elections/nope", nil, nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	env.election.GetElection(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestSetVisibility(t *testing.T) {
	env := setupEnv(t)
	id := testutil.CreateTestElection(t, env.db, testutil.ElectionOptions{})

	tests := []struct {
		name           string
		ref            string
		body           interface{}
		expectedStatus int
		expectedHidden bool
	}{
		{"hide", id, map[string]bool{"isVisible": false}, http.StatusOK, true},
		{"show", id, map[string]bool{"isVisible": true}, http.StatusOK, false},
		{"missing field", id, map[string]string{}, http.StatusBadRequest, false},
		{"unknown election", "nope", map[string]bool{"isVisible": true}, http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("PATCH", "/elections/"+tt.ref+"/visibility", tt.body, nil)
			req.SetPathValue("id", tt.ref)
			w := httptest.NewRecorder()
			env.election.SetVisibility(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			hidden := testutil.CountRows(t, env.db,
				"SELECT COUNT(*) FROM election WHERE id = $1 AND is_visible = FALSE", id) == 1
			if hidden != tt.expectedHidden {
				t.Errorf("Expected hidden=%v, got %v", tt.expectedHidden, hidden)
			}
		})
	}
}
