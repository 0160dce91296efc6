// Package billing implements the billing gateway port against the panel's
// HTTP API.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meterd-io/meterd/internal/domain/billing"
	"github.com/meterd-io/meterd/internal/shared/config"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

const (
	requestTimeout  = 10 * time.Second
	maxResponseSize = 256 << 10

	actionServiceDetails = "GetServiceDetails"
	actionChargeReset    = "ChargeTrafficReset"
)

// serviceDetailsResponse is the panel API response for one service.
type serviceDetailsResponse struct {
	Result      string `json:"result"`
	Message     string `json:"message"`
	Status      string `json:"status"`
	NextDueDate string `json:"nextduedate"` // YYYY-MM-DD
}

// chargeResponse is the panel API response for a charge request.
type chargeResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

// HTTPGateway implements billing.Gateway against the panel's form-POST API.
type HTTPGateway struct {
	baseURL    string
	identifier string
	secret     string
	httpClient *http.Client
	logger     logger.Interface
}

// NewHTTPGateway creates a billing gateway from config.
func NewHTTPGateway(cfg *config.BillingConfig, log logger.Interface) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &HTTPGateway{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		identifier: cfg.Identifier,
		secret:     cfg.Secret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

var _ billing.Gateway = (*HTTPGateway)(nil)

// GetNextDueDate returns the service's next billing due date in UTC.
func (g *HTTPGateway) GetNextDueDate(ctx context.Context, serviceSID string) (time.Time, error) {
	details, err := g.fetchServiceDetails(ctx, serviceSID)
	if err != nil {
		return time.Time{}, err
	}

	due, err := time.ParseInLocation("2006-01-02", details.NextDueDate, time.UTC)
	if err != nil {
		return time.Time{}, apperrors.NewInternalError(
			fmt.Sprintf("billing API returned unparseable due date %q", details.NextDueDate), err)
	}
	return due, nil
}

// GetBillingStatus returns the billing system's account status.
func (g *HTTPGateway) GetBillingStatus(ctx context.Context, serviceSID string) (billing.Status, error) {
	details, err := g.fetchServiceDetails(ctx, serviceSID)
	if err != nil {
		return "", err
	}
	return billing.Status(details.Status), nil
}

// ChargeForReset asks the billing system to approve a paid manual reset. A
// declined charge maps to charge_failed so callers can distinguish it from
// transport failures.
func (g *HTTPGateway) ChargeForReset(ctx context.Context, serviceSID string, amount float64) error {
	form := url.Values{
		"action": {actionChargeReset},
		"sid":    {serviceSID},
		"amount": {fmt.Sprintf("%.2f", amount)},
	}

	var resp chargeResponse
	if err := g.post(ctx, form, &resp); err != nil {
		return err
	}

	if resp.Result != "success" {
		g.logger.Warnw("billing system declined reset charge",
			"sid", serviceSID,
			"amount", amount,
			"message", resp.Message,
		)
		return apperrors.NewChargeFailedError(fmt.Sprintf("reset charge declined: %s", resp.Message))
	}

	g.logger.Infow("reset charge accepted", "sid", serviceSID, "amount", amount)
	return nil
}

func (g *HTTPGateway) fetchServiceDetails(ctx context.Context, serviceSID string) (*serviceDetailsResponse, error) {
	form := url.Values{
		"action": {actionServiceDetails},
		"sid":    {serviceSID},
	}

	var resp serviceDetailsResponse
	if err := g.post(ctx, form, &resp); err != nil {
		return nil, err
	}

	if resp.Result != "success" {
		if strings.Contains(strings.ToLower(resp.Message), "not found") {
			return nil, apperrors.NewNotFoundError("service not found in billing system")
		}
		return nil, apperrors.NewInternalError(
			fmt.Sprintf("billing API error: %s", resp.Message), nil)
	}

	return &resp, nil
}

func (g *HTTPGateway) post(ctx context.Context, form url.Values, out interface{}) error {
	form.Set("identifier", g.identifier)
	form.Set("secret", g.secret)
	form.Set("responsetype", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.NewInternalError("failed to create billing request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apperrors.NewInternalError("billing API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewInternalError(
			fmt.Sprintf("billing API returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return apperrors.NewInternalError("failed to decode billing response", err)
	}
	return nil
}
