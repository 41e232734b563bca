package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"rank-decay-tracker/internal/config"
	"rank-decay-tracker/internal/constants"
	"rank-decay-tracker/internal/domain"
	"rank-decay-tracker/internal/ratelimit"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

type RiotClient struct {
	apiKey       string
	accountBase  string
	platformBase string
	maxRetries   int
	client       *fasthttp.Client
	governor     *ratelimit.Governor
	logger       zerolog.Logger

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

// RateLimitInfo mirrors the upstream's own view of our budget, taken from
// the last response headers.
type RateLimitInfo struct {
	AppLimit    string    `json:"appLimit"`
	AppCount    string    `json:"appCount"`
	MethodCount string    `json:"methodCount"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewRiotClient(cfg *config.Config, governor *ratelimit.Governor, logger zerolog.Logger) *RiotClient {
	return &RiotClient{
		apiKey:       cfg.RiotAPIKey,
		accountBase:  cfg.AccountBaseURL,
		platformBase: cfg.PlatformBaseURL,
		maxRetries:   cfg.UpstreamMaxRetries,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
			// Handles and ids are escaped by the caller and must reach the
			// upstream as they are.
			DisablePathNormalizing: true,
		},
		governor: governor,
		logger:   logger,
	}
}

func (c *RiotClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *RiotClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if v := string(resp.Header.Peek("X-App-Rate-Limit")); v != "" {
		c.rateLimit.AppLimit = v
	}
	if v := string(resp.Header.Peek("X-App-Rate-Limit-Count")); v != "" {
		c.rateLimit.AppCount = v
	}
	if v := string(resp.Header.Peek("X-Method-Rate-Limit-Count")); v != "" {
		c.rateLimit.MethodCount = v
	}
	c.rateLimit.UpdatedAt = time.Now()
}

func (c *RiotClient) GetAccountByRiotID(ctx context.Context, handle, tag string) (*AccountResponse, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s", c.accountBase, url.PathEscape(handle), url.PathEscape(tag))
	return doRequest[AccountResponse](ctx, c, u)
}

func (c *RiotClient) GetSummonerByPUUID(ctx context.Context, puuid string) (*SummonerResponse, error) {
	u := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s", c.platformBase, url.PathEscape(puuid))
	return doRequest[SummonerResponse](ctx, c, u)
}

func (c *RiotClient) GetLeagueEntries(ctx context.Context, summonerID string) ([]LeagueEntry, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-summoner/%s", c.platformBase, url.PathEscape(summonerID))
	entries, err := doRequest[[]LeagueEntry](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

func (c *RiotClient) GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d", c.accountBase, url.PathEscape(puuid), count)
	ids, err := doRequest[[]string](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (c *RiotClient) GetMatch(ctx context.Context, matchID string) (*MatchResponse, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.accountBase, url.PathEscape(matchID))
	return doRequest[MatchResponse](ctx, c, u)
}

// doRequest runs one governed GET, retrying rate-limit and transient
// failures with exponential backoff up to maxRetries extra attempts. A
// retry-after hint from the last failure stretches the next wait; a hint
// longer than MaxRetryAfterWait, or past the ctx deadline, ends the retries.
func doRequest[T any](ctx context.Context, client *RiotClient, u string) (*T, error) {
	var hint time.Duration
	base := retry.WithMaxRetries(uint64(client.maxRetries), retry.NewExponential(constants.RetryBaseDelay))
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := base.Next()
		if stop {
			return 0, true
		}
		return max(next, hint), false
	})

	var result *T
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		res, err := doOnce[T](ctx, client, u)
		if err != nil {
			if !domain.IsRetryable(err) {
				return err
			}
			hint = domain.RetryAfter(err)
			if !worthWaiting(ctx, hint) {
				client.logger.Debug().Err(err).Str("url", u).Dur("retry_after", hint).Msg("retry-after too long, giving up")
				return err
			}
			client.logger.Debug().Err(err).Str("url", u).Int("attempt", attempt).Dur("retry_after", hint).Msg("retryable upstream failure")
			return retry.RetryableError(err)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func worthWaiting(ctx context.Context, hint time.Duration) bool {
	if hint > constants.MaxRetryAfterWait {
		return false
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < hint {
		return false
	}
	return true
}

func doOnce[T any](ctx context.Context, client *RiotClient, u string) (*T, error) {
	if err := client.governor.Allow(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", client.apiKey)

	deadline, _ := ctx.Deadline()
	if err := client.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamTransient, err)
	}

	client.updateRateLimit(resp)

	if err := statusError(resp); err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamPermanent, err)
	}
	return &result, nil
}

func statusError(resp *fasthttp.Response) error {
	code := resp.StatusCode()
	switch {
	case code == fasthttp.StatusOK:
		return nil
	case code == fasthttp.StatusNotFound:
		return fmt.Errorf("%w: upstream returned 404", domain.ErrNotFound)
	case code == fasthttp.StatusTooManyRequests:
		var after time.Duration
		if secs, err := strconv.Atoi(string(resp.Header.Peek("Retry-After"))); err == nil {
			after = time.Duration(secs) * time.Second
		}
		return &domain.RetryAfterError{
			Err:   fmt.Errorf("%w: upstream returned 429", domain.ErrRateLimited),
			After: after,
		}
	case code >= 500:
		return fmt.Errorf("%w: upstream returned %d", domain.ErrUpstreamTransient, code)
	default:
		return fmt.Errorf("%w: upstream returned %d", domain.ErrUpstreamPermanent, code)
	}
}
