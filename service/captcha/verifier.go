package captcha

import (
	"context"
	"encoding/json"
	"time"

	"ChatStory/global/config"
	"ChatStory/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Verifier asks a reCAPTCHA style siteverify endpoint whether a client
// token belongs to a bot. Every failure to get a clear answer counts as
// human.
type Verifier struct {
	client   *resty.Client
	endpoint string
	secret   string
	minScore float64
}

type verifyResponse struct {
	Success bool     `json:"success"`
	Score   *float64 `json:"score"`
}

func NewVerifier(cfg config.CaptchaConfig) *Verifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		client:   resty.New().SetTimeout(timeout),
		endpoint: cfg.Endpoint,
		secret:   cfg.Secret,
		minScore: cfg.MinScore,
	}
}

// Enabled reports whether a secret is configured. A disabled verifier never
// reports a bot.
func (v *Verifier) Enabled() bool {
	return v.secret != "" && v.endpoint != ""
}

func (v *Verifier) IsBot(ctx context.Context, token string) bool {
	if !v.Enabled() {
		return false
	}

	resp, err := v.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   v.secret,
			"response": token,
		}).
		Post(v.endpoint)
	if err != nil {
		logger.Warn("[Captcha] verify request failed", zap.Error(err))
		return false
	}
	if resp.StatusCode() > 299 {
		logger.Warn("[Captcha] verify answered with http error", zap.Int("status", resp.StatusCode()))
		return false
	}

	var payload verifyResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		logger.Warn("[Captcha] unreadable verify payload", zap.Error(err))
		return false
	}
	return decide(payload, v.minScore)
}

func decide(p verifyResponse, minScore float64) bool {
	switch {
	case p.Success && p.Score != nil && *p.Score > minScore:
		return false
	case p.Score != nil:
		return true
	default:
		return false
	}
}
