// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// goalQuery builds the optional ?type= filter.
func goalQuery(frequency GoalFrequency) url.Values {
	if frequency == "" {
		return nil
	}
	return url.Values{"type": {string(frequency)}}
}

// Goals lists goals visible to the viewer, optionally filtered by
// frequency. Pass "" for no filter.
func (s *Session) Goals(ctx context.Context, frequency GoalFrequency) ([]Goal, error) {
	data, err := s.request(ctx, http.MethodGet, "/goals", goalQuery(frequency), nil)
	if err != nil {
		return nil, fmt.Errorf("api: listing goals: %w", err)
	}
	payload, err := decode[struct {
		Goals []Goal `json:"goals"`
	}](data, "goals")
	if err != nil {
		return nil, err
	}
	return payload.Goals, nil
}

// MyGoals lists only the viewer's own goals.
func (s *Session) MyGoals(ctx context.Context, frequency GoalFrequency) ([]Goal, error) {
	data, err := s.request(ctx, http.MethodGet, "/goals/my", goalQuery(frequency), nil)
	if err != nil {
		return nil, fmt.Errorf("api: listing own goals: %w", err)
	}
	payload, err := decode[struct {
		Goals []Goal `json:"goals"`
	}](data, "own goals")
	if err != nil {
		return nil, err
	}
	return payload.Goals, nil
}

// GoalByID fetches one goal.
func (s *Session) GoalByID(ctx context.Context, id string) (*Goal, error) {
	data, err := s.request(ctx, http.MethodGet, "/goals/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: fetching goal %q: %w", id, err)
	}
	payload, err := decode[struct {
		Goal Goal `json:"goal"`
	}](data, "goal")
	if err != nil {
		return nil, err
	}
	return &payload.Goal, nil
}

// CreateGoal creates a new goal.
func (s *Session) CreateGoal(ctx context.Context, request CreateGoalRequest) (*Goal, error) {
	data, err := s.request(ctx, http.MethodPost, "/goals", nil, request)
	if err != nil {
		return nil, fmt.Errorf("api: creating goal: %w", err)
	}
	payload, err := decode[struct {
		Goal Goal `json:"goal"`
	}](data, "created goal")
	if err != nil {
		return nil, err
	}
	return &payload.Goal, nil
}

// UpdateGoal applies a partial update to a goal.
func (s *Session) UpdateGoal(ctx context.Context, id string, request UpdateGoalRequest) (*Goal, error) {
	data, err := s.request(ctx, http.MethodPatch, "/goals/"+url.PathEscape(id), nil, request)
	if err != nil {
		return nil, fmt.Errorf("api: updating goal %q: %w", id, err)
	}
	payload, err := decode[struct {
		Goal Goal `json:"goal"`
	}](data, "updated goal")
	if err != nil {
		return nil, err
	}
	return &payload.Goal, nil
}

// DeleteGoal removes a goal.
func (s *Session) DeleteGoal(ctx context.Context, id string) error {
	if _, err := s.request(ctx, http.MethodDelete, "/goals/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("api: deleting goal %q: %w", id, err)
	}
	return nil
}

// CompleteGoal records a completion for the current period, updating
// streaks and points server-side.
func (s *Session) CompleteGoal(ctx context.Context, id string) (*Goal, error) {
	data, err := s.request(ctx, http.MethodPost, "/goals/"+url.PathEscape(id)+"/complete", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: completing goal %q: %w", id, err)
	}
	payload, err := decode[struct {
		Goal Goal `json:"goal"`
	}](data, "completed goal")
	if err != nil {
		return nil, err
	}
	return &payload.Goal, nil
}

// GoalStats returns aggregate goal statistics for the viewer.
func (s *Session) GoalStats(ctx context.Context) (*GoalStats, error) {
	data, err := s.request(ctx, http.MethodGet, "/goals/stats", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: fetching goal stats: %w", err)
	}
	payload, err := decode[struct {
		Stats GoalStats `json:"stats"`
	}](data, "goal stats")
	if err != nil {
		return nil, err
	}
	return &payload.Stats, nil
}

// StreakInfo returns the viewer's streak state across all goals.
func (s *Session) StreakInfo(ctx context.Context) (*StreakInfo, error) {
	data, err := s.request(ctx, http.MethodGet, "/goals/streak", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: fetching streak info: %w", err)
	}
	payload, err := decode[struct {
		Streak StreakInfo `json:"streak"`
	}](data, "streak info")
	if err != nil {
		return nil, err
	}
	return &payload.Streak, nil
}

// ShareGoal shares a goal with a friend.
func (s *Session) ShareGoal(ctx context.Context, goalID, friendID string) error {
	body := map[string]string{"friendId": friendID}
	path := "/goals/" + url.PathEscape(goalID) + "/share"
	if _, err := s.request(ctx, http.MethodPost, path, nil, body); err != nil {
		return fmt.Errorf("api: sharing goal %q with %q: %w", goalID, friendID, err)
	}
	return nil
}

// UnshareGoal stops sharing a goal with a friend.
func (s *Session) UnshareGoal(ctx context.Context, goalID, friendID string) error {
	path := "/goals/" + url.PathEscape(goalID) + "/share/" + url.PathEscape(friendID)
	if _, err := s.request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("api: unsharing goal %q from %q: %w", goalID, friendID, err)
	}
	return nil
}
