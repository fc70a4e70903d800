package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pable/go-match-coach/internal/apperrors"
	"github.com/pable/go-match-coach/internal/model"
)

// Endpoint paths.
const (
	pathMatches    = "/matches/"
	pathPlayers    = "/players/"
	pathBenchmarks = "/benchmarks"
	pathHeroes     = "/constants/heroes"
	pathItems      = "/constants/items"
)

// MatchRequest is the Request that Match issues.
func MatchRequest(matchID int64) Request {
	return Request{Endpoint: pathMatches + strconv.FormatInt(matchID, 10)}
}

// BenchmarksRequest is the Request that Benchmarks issues.
func BenchmarksRequest(heroID int) Request {
	return Request{Endpoint: pathBenchmarks, Params: map[string]string{"hero_id": strconv.Itoa(heroID)}}
}

// Match returns the full record for matchID.
func (c *Client) Match(ctx context.Context, matchID int64) (*model.MatchRecord, error) {
	r := MatchRequest(matchID)
	body, err := c.Fetch(ctx, r.Endpoint, r.Params)
	if err != nil {
		return nil, err
	}
	m, err := DecodeMatch(body)
	if err != nil {
		c.forget(CacheKey(r.Endpoint, r.Params))
		return nil, err
	}
	return m, nil
}

// ForgetMatch drops the cached and persisted payload of matchID so the next
// Match call goes to the network.
func (c *Client) ForgetMatch(matchID int64) {
	r := MatchRequest(matchID)
	c.forget(CacheKey(r.Endpoint, r.Params))
}

// DecodeMatch validates and decodes a /matches body.
func DecodeMatch(body []byte) (*model.MatchRecord, error) {
	var m model.MatchRecord
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &apperrors.MalformedDataError{Source: "match", Reason: "decode", Err: err}
	}
	if m.MatchID == 0 {
		return nil, &apperrors.MalformedDataError{Source: "match", Reason: "missing match_id"}
	}
	if len(m.Players) == 0 {
		return nil, &apperrors.MalformedDataError{Source: fmt.Sprintf("match %d", m.MatchID), Reason: "no players"}
	}
	return &m, nil
}

// Player returns the profile for accountID.
func (c *Client) Player(ctx context.Context, accountID int64) (*model.PlayerProfile, error) {
	endpoint := pathPlayers + strconv.FormatInt(accountID, 10)
	body, err := c.Fetch(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var p model.PlayerProfile
	if err := json.Unmarshal(body, &p); err != nil {
		c.forget(CacheKey(endpoint, nil))
		return nil, &apperrors.MalformedDataError{Source: "player", Reason: "decode", Err: err}
	}
	if p.Profile.AccountID == 0 {
		return nil, &apperrors.NotFoundError{Resource: "player", ID: strconv.FormatInt(accountID, 10)}
	}
	return &p, nil
}

// Benchmarks returns the population distributions for heroID.
func (c *Client) Benchmarks(ctx context.Context, heroID int) (*model.HeroBenchmarks, error) {
	r := BenchmarksRequest(heroID)
	body, err := c.Fetch(ctx, r.Endpoint, r.Params)
	if err != nil {
		return nil, err
	}
	var b model.HeroBenchmarks
	if err := json.Unmarshal(body, &b); err != nil {
		c.forget(CacheKey(r.Endpoint, r.Params))
		return nil, &apperrors.MalformedDataError{Source: "benchmarks", Reason: "decode", Err: err}
	}
	if len(b.Result) == 0 {
		return nil, &apperrors.MalformedDataError{Source: fmt.Sprintf("benchmarks hero %d", heroID), Reason: "empty result"}
	}
	if b.HeroID == 0 {
		b.HeroID = heroID
	}
	return &b, nil
}

// Heroes returns the hero constants keyed by hero id.
func (c *Client) Heroes(ctx context.Context) (map[int]model.Hero, error) {
	body, err := c.Fetch(ctx, pathHeroes, nil)
	if err != nil {
		return nil, err
	}
	var raw map[string]model.Hero
	if err := json.Unmarshal(body, &raw); err != nil {
		c.forget(CacheKey(pathHeroes, nil))
		return nil, &apperrors.MalformedDataError{Source: "heroes", Reason: "decode", Err: err}
	}
	out := make(map[int]model.Hero, len(raw))
	for k, h := range raw {
		if h.ID == 0 {
			id, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			h.ID = id
		}
		out[h.ID] = h
	}
	return out, nil
}

// Items returns the item constants keyed by internal item name.
func (c *Client) Items(ctx context.Context) (map[string]model.Item, error) {
	body, err := c.Fetch(ctx, pathItems, nil)
	if err != nil {
		return nil, err
	}
	var out map[string]model.Item
	if err := json.Unmarshal(body, &out); err != nil {
		c.forget(CacheKey(pathItems, nil))
		return nil, &apperrors.MalformedDataError{Source: "items", Reason: "decode", Err: err}
	}
	return out, nil
}
