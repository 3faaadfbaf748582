package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand/v2"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SimConfig holds the runtime knobs of a simulation.
type SimConfig struct {
	BaseURL   string
	Users     int
	BatchSize int
	Delay     time.Duration
	Jitter    time.Duration
	Timeout   time.Duration
	Seed      uint64
}

// UserResult is the outcome of one simulated visitor.
type UserResult struct {
	UserID   int
	UserType string
	Requests int
	Success  bool
	Err      error
}

// Simulator replays synthetic visitors against the collect endpoint.
type Simulator struct {
	config   SimConfig
	scenario *Scenario
	client   *http.Client
	logger   *slog.Logger
	sent     atomic.Int64
}

// NewSimulator validates the scenario and builds a simulator.
func NewSimulator(config SimConfig, scenario *Scenario, logger *slog.Logger) (*Simulator, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	if config.Users < 1 {
		return nil, fmt.Errorf("users must be positive, got %d", config.Users)
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	return &Simulator{
		config:   config,
		scenario: scenario,
		client:   &http.Client{Timeout: config.Timeout},
		logger:   logger,
	}, nil
}

// Run simulates every user in batches; progress is called after each batch. It stops
// early when ctx is canceled and returns the results gathered so far.
func (s *Simulator) Run(ctx context.Context, progress func(done, total int)) []UserResult {
	results := make([]UserResult, 0, s.config.Users)

	for start := 0; start < s.config.Users; start += s.config.BatchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+s.config.BatchSize, s.config.Users)
		batch := make([]UserResult, end-start)

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				batch[i-start] = s.simulateUser(gctx, i+1)
				return nil
			})
		}
		_ = g.Wait()

		results = append(results, batch...)
		if progress != nil {
			progress(end, s.config.Users)
		}
	}
	return results
}

// Sent is the number of requests answered by the server, including failed statuses.
func (s *Simulator) Sent() int64 {
	return s.sent.Load()
}

// rng gives each user its own deterministic stream so runs with the same seed match.
func (s *Simulator) rng(userID int) *rand.Rand {
	seed := s.config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, uint64(userID)))
}

// visitorUUID draws a random (version 4) UUID from r so seeded runs reuse the same ids.
func visitorUUID(r *rand.Rand) (string, error) {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], r.Uint64())
	binary.LittleEndian.PutUint64(b[8:], r.Uint64())
	id, err := uuid.NewRandomFromReader(bytes.NewReader(b[:]))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Simulator) simulateUser(ctx context.Context, userID int) UserResult {
	r := s.rng(userID)
	sc := s.scenario

	uid, err := visitorUUID(r)
	if err != nil {
		return UserResult{UserID: userID, Err: err}
	}
	userType := sc.pickUserType(r)
	userAgent := pickChoice(r, sc.UserAgents)
	ip := sc.randomIP(r)
	pages := userType.MinPages + r.IntN(userType.MaxPages-userType.MinPages+1)

	current := pickChoice(r, sc.LandingPages)
	referrer := pickChoice(r, sc.Sources)

	result := UserResult{UserID: userID, UserType: userType.Name}
	for step := 1; step <= pages; step++ {
		meta, err := json.Marshal(map[string]interface{}{
			"resolution":   randomOf(r, sc.Resolutions),
			"language":     randomOf(r, sc.Languages),
			"timezone":     sc.Timezone,
			"user_type":    userType.Name,
			"session_step": step,
		})
		if err != nil {
			result.Err = err
			return result
		}

		params := url.Values{
			"uid":        {uid},
			"url":        {current},
			"referrer":   {referrer},
			"event_type": {"pageview"},
			"meta_data":  {string(meta)},
		}
		if err := s.send(ctx, params, userAgent, ip); err != nil {
			s.logger.Debug("Request failed", slog.Int("user", userID), slog.Any("error", err))
			result.Err = err
			return result
		}
		result.Requests++

		referrer = current
		current = sc.nextPage(r, current)

		if err := sleep(ctx, s.config.Delay+jitter(r, s.config.Jitter)); err != nil {
			result.Err = err
			return result
		}
	}

	result.Success = true
	return result
}

func (s *Simulator) send(ctx context.Context, params url.Values, userAgent, ip string) error {
	target := strings.TrimRight(s.config.BaseURL, "/") + "/collect?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Forwarded-For", ip)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	s.sent.Add(1)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func randomOf(r *rand.Rand, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[r.IntN(len(items))]
}

func jitter(r *rand.Rand, limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(r.Int64N(int64(limit)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
