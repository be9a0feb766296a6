package stock

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
)

// LoyaltyResult is the outcome of a loyalty-point restore.
type LoyaltyResult struct {
	Success        bool   `json:"success"`
	PointsRestored int64  `json:"points_restored"`
	Error          string `json:"error,omitempty"`
}

// LoyaltyService is the external loyalty-point contract consumed by the
// cancellation compensator. Balance computation lives entirely on the other
// side of this interface.
type LoyaltyService interface {
	Award(ctx context.Context, customerID, orderID, amount int64) (*LoyaltyResult, error)
	Restore(ctx context.Context, customerID, orderID, pointsUsed int64) (*LoyaltyResult, error)
}

// HTTPLoyaltyService talks to the loyalty backend over HTTP.
type HTTPLoyaltyService struct {
	endpoint string
	token    string
	timeout  time.Duration
}

func NewHTTPLoyaltyService(endpoint, token string, timeout time.Duration) *HTTPLoyaltyService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPLoyaltyService{endpoint: endpoint, token: token, timeout: timeout}
}

func (s *HTTPLoyaltyService) Award(ctx context.Context, customerID, orderID, amount int64) (*LoyaltyResult, error) {
	return s.post(ctx, "/points/award", gout.H{
		"customer_id": customerID,
		"order_id":    orderID,
		"amount":      amount,
	})
}

func (s *HTTPLoyaltyService) Restore(ctx context.Context, customerID, orderID, pointsUsed int64) (*LoyaltyResult, error) {
	return s.post(ctx, "/points/restore", gout.H{
		"customer_id": customerID,
		"order_id":    orderID,
		"points_used": pointsUsed,
	})
}

func (s *HTTPLoyaltyService) post(ctx context.Context, path string, body gout.H) (*LoyaltyResult, error) {
	var result LoyaltyResult
	var code int
	err := gout.POST(s.endpoint+path).
		WithContext(ctx).
		SetTimeout(s.timeout).
		SetHeader(gout.H{"Authorization": "Bearer " + s.token}).
		SetJSON(body).
		BindJSON(&result).
		Code(&code).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "loyalty call %s", path)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("loyalty call %s returned status %d", path, code)
	}
	return &result, nil
}
