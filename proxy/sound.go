// Package proxy contains the thin pass-through services for the two
// third-party APIs the app talks to: Freesound (ambient sound search) and
// Todoist (task list). Each service validates its credential, makes one
// bounded outbound call, and translates the outcome into application errors
// at this boundary, so no upstream failure ever escapes as a raw fault.
package proxy

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"focusfeed/errs"
)

// DefaultSoundBaseURL is the Freesound text-search endpoint.
const DefaultSoundBaseURL = "https://freesound.org/apiv2"

// soundPageSize limits the upstream search to 20 results, out of which one
// is picked at random.
const soundPageSize = 20

// SoundConfig carries everything the sound service needs from the outside.
// Passing it in explicitly (instead of reading the environment inside the
// service) is what lets tests swap in an httptest server and a fixed pick.
type SoundConfig struct {
	Token   string
	BaseURL string
}

// Sound is the normalized result returned to our own clients.
type Sound struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Mp3URL string `json:"mp3Url"`
	Tag    string `json:"tag"`
}

// SoundService proxies sound searches to Freesound.
type SoundService struct {
	cfg    SoundConfig
	client *http.Client
	logger *zap.SugaredLogger

	// pick selects an index in [0, n). Injected so tests can pin the
	// otherwise random choice.
	pick func(n int) int
}

// NewSoundService returns a SoundService with a 10 second client timeout
// and a uniformly random pick.
func NewSoundService(cfg SoundConfig, logger *zap.SugaredLogger) *SoundService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSoundBaseURL
	}
	return &SoundService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		pick:   rand.Intn,
	}
}

// WithClient replaces the outbound HTTP client. Returns the service for chaining.
func (s *SoundService) WithClient(c *http.Client) *SoundService {
	s.client = c
	return s
}

// WithPick replaces the random selection function. Returns the service for chaining.
func (s *SoundService) WithPick(pick func(n int) int) *SoundService {
	s.pick = pick
	return s
}

// soundSearchResponse mirrors the slice of the Freesound payload we care about.
type soundSearchResponse struct {
	Results []struct {
		ID       int               `json:"id"`
		Name     string            `json:"name"`
		Previews map[string]string `json:"previews"`
	} `json:"results"`
}

// Search queries Freesound for sounds matching the tag and returns one of
// the first 20 results, chosen by the pick function. It prefers the
// high-quality mp3 preview and falls back to the low-quality one.
func (s *SoundService) Search(ctx context.Context, tag string) (*Sound, error) {
	if s.cfg.Token == "" {
		return nil, errs.Errorf(errs.EUNCONFIGURED, "FREESOUND_TOKEN is not set")
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = "rain"
	}

	// Freesound accepts the token both as a query parameter and as an
	// Authorization header. Send both, like the upstream docs suggest.
	params := url.Values{}
	params.Set("query", tag)
	params.Set("page_size", strconv.Itoa(soundPageSize))
	params.Set("fields", "id,name,previews")
	params.Set("token", s.cfg.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.cfg.BaseURL+"/search/text/?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+s.cfg.Token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errs.Errorf(errs.EUPSTREAM, "Freesound is unreachable: %s", err)
	}
	defer resp.Body.Close()

	s.logger.Debugw("freesound search", "tag", tag, "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Errorf(errs.EUPSTREAM, "Freesound search failed with status %d: %s",
			resp.StatusCode, readBodyPreview(resp.Body))
	}

	var payload soundSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errs.Errorf(errs.EUPSTREAM, "Freesound returned an unreadable response: %s", err)
	}
	if len(payload.Results) == 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, "No sound found for tag=%s", tag)
	}

	n := len(payload.Results)
	if n > soundPageSize {
		n = soundPageSize
	}
	chosen := payload.Results[s.pick(n)]

	mp3 := chosen.Previews["preview-hq-mp3"]
	if mp3 == "" {
		mp3 = chosen.Previews["preview-lq-mp3"]
	}
	if mp3 == "" {
		return nil, errs.Errorf(errs.EUPSTREAM, "No mp3 preview found")
	}

	return &Sound{
		ID:     chosen.ID,
		Name:   chosen.Name,
		Mp3URL: mp3,
		Tag:    tag,
	}, nil
}
