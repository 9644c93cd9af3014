package lnurl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Options configures a Client.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxRedirects int

	// HTTPClient replaces the underlying transport, mainly for tests.
	HTTPClient *http.Client
}

// Client issues the GET requests of the LNURL pay and withdraw flows.
// Every call is attempted exactly once.
type Client struct {
	http *resty.Client
	log  *logrus.Entry
}

// NewClient builds a client scoped to a single flow. Call Close when the
// flow is over to release its connections.
func NewClient(opts Options) *Client {
	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}

	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 10
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "lnbits/tpos"
	}

	rc.SetRedirectPolicy(resty.FlexibleRedirectPolicy(opts.MaxRedirects)).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}

	return &Client{
		http: rc,
		log:  logrus.WithField("component", "lnurl"),
	}
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

func (c *Client) get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(url)
	if err != nil {
		c.log.WithError(err).WithField("url", url).Debug("lnurl request failed")
		return nil, &TransportError{URL: url, Err: err}
	}

	if resp.IsError() {
		c.log.WithFields(logrus.Fields{
			"url":    url,
			"status": resp.StatusCode(),
		}).Debug("lnurl service answered with an error status")
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode()}
	}

	return resp.Body(), nil
}

// FetchPayParams loads and validates LNURL-pay metadata.
func (c *Client) FetchPayParams(ctx context.Context, url string) (*PayParams, error) {
	body, err := c.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var p PayParams
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	if p.Tag != TagPayRequest {
		return nil, fmt.Errorf("%w: %q", ErrWrongTag, p.Tag)
	}

	switch {
	case p.Callback == "":
		return nil, fmt.Errorf("%w: missing callback", ErrMalformedMetadata)
	case p.MinSendable == nil || p.MaxSendable == nil:
		return nil, fmt.Errorf("%w: missing sendable bounds", ErrMalformedMetadata)
	}

	return &p, nil
}

// RequestInvoice asks the pay callback for an invoice of the given amount.
func (c *Client) RequestInvoice(ctx context.Context, callback string, amount Msat) (*PayCallbackResponse, error) {
	body, err := c.get(ctx, callback, map[string]string{
		"amount": strconv.FormatInt(int64(amount), 10),
	})
	if err != nil {
		return nil, err
	}

	var r PayCallbackResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	if r.Status == StatusError {
		return nil, &ServiceError{Reason: r.Reason}
	}
	if r.PR == "" {
		return nil, fmt.Errorf("%w: missing pr", ErrMalformedMetadata)
	}

	return &r, nil
}

// FetchWithdrawParams loads and validates LNURL-withdraw metadata.
func (c *Client) FetchWithdrawParams(ctx context.Context, url string) (*WithdrawParams, error) {
	body, err := c.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var p WithdrawParams
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	if p.Tag != TagWithdrawRequest {
		return nil, fmt.Errorf("%w: %q", ErrWrongTag, p.Tag)
	}

	switch {
	case p.Callback == "":
		return nil, fmt.Errorf("%w: missing callback", ErrMalformedMetadata)
	case p.K1 == "":
		return nil, fmt.Errorf("%w: missing k1", ErrMalformedMetadata)
	}

	return &p, nil
}

// SubmitWithdraw hands the invoice to the withdraw callback, echoing k1.
func (c *Client) SubmitWithdraw(ctx context.Context, callback, k1, paymentRequest string) (*WithdrawResult, error) {
	body, err := c.get(ctx, callback, map[string]string{
		"k1": k1,
		"pr": paymentRequest,
	})
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: callback reply is not json", ErrMalformedMetadata)
	}

	return &WithdrawResult{
		Status: gjson.GetBytes(body, "status").String(),
		Reason: gjson.GetBytes(body, "reason").String(),
		Raw:    json.RawMessage(body),
	}, nil
}
