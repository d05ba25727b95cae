// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// LeaderboardPeriod selects the scoring window for the leaderboard.
type LeaderboardPeriod string

const (
	PeriodAll   LeaderboardPeriod = "all"
	PeriodMonth LeaderboardPeriod = "month"
	PeriodWeek  LeaderboardPeriod = "week"
)

// Leaderboard returns the global points ranking. Pass "" for the
// backend's default period.
func (s *Session) Leaderboard(ctx context.Context, period LeaderboardPeriod) ([]LeaderboardEntry, error) {
	var query url.Values
	if period != "" {
		query = url.Values{"period": {string(period)}}
	}
	data, err := s.request(ctx, http.MethodGet, "/leaderboard", query, nil)
	if err != nil {
		return nil, fmt.Errorf("api: fetching leaderboard: %w", err)
	}
	payload, err := decode[struct {
		Leaderboard []LeaderboardEntry `json:"leaderboard"`
	}](data, "leaderboard")
	if err != nil {
		return nil, err
	}
	return payload.Leaderboard, nil
}

// FriendsLeaderboard returns the ranking restricted to the viewer's
// friends.
func (s *Session) FriendsLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	data, err := s.request(ctx, http.MethodGet, "/leaderboard/friends", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: fetching friends leaderboard: %w", err)
	}
	payload, err := decode[struct {
		Leaderboard []LeaderboardEntry `json:"leaderboard"`
	}](data, "friends leaderboard")
	if err != nil {
		return nil, err
	}
	return payload.Leaderboard, nil
}

// UserRank returns the viewer's own position in the global ranking.
func (s *Session) UserRank(ctx context.Context) (*UserRank, error) {
	data, err := s.request(ctx, http.MethodGet, "/leaderboard/rank", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("api: fetching own rank: %w", err)
	}
	payload, err := decode[struct {
		Rank UserRank `json:"rank"`
	}](data, "rank")
	if err != nil {
		return nil, err
	}
	return &payload.Rank, nil
}
