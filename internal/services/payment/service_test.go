package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"tpos/internal/lnurl"
	"tpos/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPayer struct {
	mock.Mock
}

func (m *MockPayer) PayInvoice(ctx context.Context, walletID, paymentRequest, description string, extra map[string]any) (string, error) {
	args := m.Called(ctx, walletID, paymentRequest, description, extra)
	return args.String(0), args.Error(1)
}

// lnurlService fakes both ends of an LNURL service: the metadata GET and
// its callback.
type lnurlService struct {
	srv       *httptest.Server
	metadata  func(base string) string
	callback  func(w http.ResponseWriter, r *http.Request)
	callbacks atomic.Int32
	lastQuery atomic.Value
}

func newLNURLService(t *testing.T) *lnurlService {
	s := &lnurlService{}
	mux := http.NewServeMux()
	mux.HandleFunc("/lnurl", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(s.metadata(s.srv.URL)))
	})
	mux.HandleFunc("/cb", func(w http.ResponseWriter, r *http.Request) {
		s.callbacks.Add(1)
		s.lastQuery.Store(r.URL.Query())
		s.callback(w, r)
	})
	s.srv = httptest.NewTLSServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *lnurlService) factory() ClientFactory {
	return func() LNURLClient {
		return lnurl.NewClient(lnurl.Options{
			Timeout:    time.Second,
			HTTPClient: s.srv.Client(),
		})
	}
}

func (s *lnurlService) query(key string) string {
	q, _ := s.lastQuery.Load().(url.Values)
	return q.Get(key)
}

func payMetadata(min, max int64) func(string) string {
	return func(base string) string {
		return fmt.Sprintf(`{"tag":"payRequest","callback":"%s/cb","minSendable":%d,"maxSendable":%d,"metadata":"[]"}`, base, min, max)
	}
}

func reply(body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func quietLogger() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func atmTerminal() *models.Tpos {
	return &models.Tpos{ID: "T1", Wallet: "W1", Name: "Shop", Atm: true}
}

func TestOrchestrator_PullATM_Disabled(t *testing.T) {
	payer := new(MockPayer)
	o := NewOrchestrator(payer, func() LNURLClient {
		t.Fatal("no client expected when atm is disabled")
		return nil
	}, quietLogger())

	out := o.PullATM(context.Background(), &models.Tpos{ID: "T1", Wallet: "W1"}, 100, "https://x/pay")

	assert.Equal(t, Failed(DetailATMNotAllowed), out)
	payer.AssertNotCalled(t, "PayInvoice")
}

func TestOrchestrator_PullATM_Success(t *testing.T) {
	svc := newLNURLService(t)
	svc.metadata = payMetadata(1000, 500000)
	svc.callback = reply(`{"pr":"lnbc100n1test","routes":[]}`)

	payer := new(MockPayer)
	payer.On("PayInvoice", mock.Anything, "W1", "lnbc100n1test", "ATM Withdrawal",
		map[string]any{"tag": "tpos_atm", "tpos": "T1"}).Return("hash123", nil)

	o := NewOrchestrator(payer, svc.factory(), quietLogger())
	out := o.PullATM(context.Background(), atmTerminal(), 10, svc.srv.URL+"/lnurl")

	assert.Equal(t, Succeeded(DetailPaymentSuccessful, "hash123"), out)
	assert.Equal(t, "10000", svc.query("amount"))
	payer.AssertExpectations(t)
}

func TestOrchestrator_PullATM_Bounds(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		wantDetail string
	}{
		{name: "at minimum", amount: 1},
		{name: "inside", amount: 250},
		{name: "at maximum", amount: 500},
		{name: "below minimum", amount: 0, wantDetail: DetailAmountTooLow},
		{name: "above maximum", amount: 501, wantDetail: DetailAmountTooHigh},
		{name: "msat overflow", amount: lnurl.MaxSat + 1, wantDetail: DetailAmountTooHigh},
		{name: "max int64", amount: math.MaxInt64, wantDetail: DetailAmountTooHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newLNURLService(t)
			svc.metadata = payMetadata(1000, 500000)
			svc.callback = reply(`{"pr":"lnbc1test"}`)

			payer := new(MockPayer)
			payer.On("PayInvoice", mock.Anything, "W1", "lnbc1test", mock.Anything, mock.Anything).
				Return("hash", nil).Maybe()

			o := NewOrchestrator(payer, svc.factory(), quietLogger())
			out := o.PullATM(context.Background(), atmTerminal(), tt.amount, svc.srv.URL+"/lnurl")

			if tt.wantDetail != "" {
				assert.Equal(t, Failed(tt.wantDetail), out)
				assert.Zero(t, svc.callbacks.Load(), "callback must not be called")
				payer.AssertNotCalled(t, "PayInvoice")
				return
			}

			assert.True(t, out.Success)
			assert.Equal(t, int32(1), svc.callbacks.Load())
			assert.Equal(t, fmt.Sprint(tt.amount*1000), svc.query("amount"))
		})
	}
}

func TestOrchestrator_PullATM_Failures(t *testing.T) {
	tests := []struct {
		name       string
		metadata   func(string) string
		callback   func(http.ResponseWriter, *http.Request)
		wantDetail string
		callbacks  int32
	}{
		{
			name: "wrong tag",
			metadata: func(string) string {
				return `{"tag":"channelRequest","callback":"https://x/cb","minSendable":1,"maxSendable":2}`
			},
			wantDetail: DetailWrongTag,
		},
		{
			name: "missing bounds",
			metadata: func(base string) string {
				return fmt.Sprintf(`{"tag":"payRequest","callback":"%s/cb"}`, base)
			},
			wantDetail: DetailMalformedResponse,
		},
		{
			name:     "callback error status",
			metadata: payMetadata(1000, 500000),
			callback: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantDetail: DetailErrorLoadingCB,
			callbacks:  1,
		},
		{
			name:       "callback service error",
			metadata:   payMetadata(1000, 500000),
			callback:   reply(`{"status":"ERROR","reason":"no liquidity"}`),
			wantDetail: "no liquidity",
			callbacks:  1,
		},
		{
			name:       "callback service error without reason",
			metadata:   payMetadata(1000, 500000),
			callback:   reply(`{"status":"ERROR","reason":""}`),
			wantDetail: DetailServiceRejected,
			callbacks:  1,
		},
		{
			name:       "callback without invoice",
			metadata:   payMetadata(1000, 500000),
			callback:   reply(`{"routes":[]}`),
			wantDetail: DetailMalformedResponse,
			callbacks:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newLNURLService(t)
			svc.metadata = tt.metadata
			svc.callback = tt.callback

			payer := new(MockPayer)
			o := NewOrchestrator(payer, svc.factory(), quietLogger())
			out := o.PullATM(context.Background(), atmTerminal(), 10, svc.srv.URL+"/lnurl")

			assert.Equal(t, Failed(tt.wantDetail), out)
			assert.Equal(t, tt.callbacks, svc.callbacks.Load())
			payer.AssertNotCalled(t, "PayInvoice")
		})
	}
}

func TestOrchestrator_PullATM_MetadataUnreachable(t *testing.T) {
	svc := newLNURLService(t)
	payLink := svc.srv.URL + "/lnurl"
	svc.srv.Close()

	o := NewOrchestrator(new(MockPayer), svc.factory(), quietLogger())
	out := o.PullATM(context.Background(), atmTerminal(), 10, payLink)

	assert.Equal(t, Failed(DetailErrorLoading), out)
}

func TestOrchestrator_PullATM_PaymentFailed(t *testing.T) {
	svc := newLNURLService(t)
	svc.metadata = payMetadata(1000, 500000)
	svc.callback = reply(`{"pr":"lnbc1test"}`)

	payer := new(MockPayer)
	payer.On("PayInvoice", mock.Anything, "W1", "lnbc1test", mock.Anything, mock.Anything).
		Return("", errors.New("insufficient balance"))

	o := NewOrchestrator(payer, svc.factory(), quietLogger())
	out := o.PullATM(context.Background(), atmTerminal(), 10, svc.srv.URL+"/lnurl")

	assert.Equal(t, Failed("Payment failed - insufficient balance"), out)
}

func TestOrchestrator_PushWithdraw(t *testing.T) {
	withdrawMetadata := func(base string) string {
		return fmt.Sprintf(`{"tag":"withdrawRequest","callback":"%s/cb","k1":"challenge","minWithdrawable":1000,"maxWithdrawable":100000}`, base)
	}

	tests := []struct {
		name      string
		metadata  func(string) string
		callback  func(http.ResponseWriter, *http.Request)
		want      Outcome
		callbacks int32
	}{
		{
			name:      "ok",
			metadata:  withdrawMetadata,
			callback:  reply(`{"status":"OK"}`),
			want:      Succeeded(json.RawMessage(`{"status":"OK"}`), ""),
			callbacks: 1,
		},
		{
			name:      "status absent",
			metadata:  withdrawMetadata,
			callback:  reply(`{"paid":true}`),
			want:      Succeeded(json.RawMessage(`{"paid":true}`), ""),
			callbacks: 1,
		},
		{
			name:      "service error",
			metadata:  withdrawMetadata,
			callback:  reply(`{"status":"ERROR","reason":"already used"}`),
			want:      Failed("already used"),
			callbacks: 1,
		},
		{
			name:      "service error without reason",
			metadata:  withdrawMetadata,
			callback:  reply(`{"status":"ERROR"}`),
			want:      Failed(DetailServiceRejected),
			callbacks: 1,
		},
		{
			name:     "callback error status",
			metadata: withdrawMetadata,
			callback: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			want:      Failed(DetailErrorLoadingCB),
			callbacks: 1,
		},
		{
			name: "wrong tag",
			metadata: func(base string) string {
				return fmt.Sprintf(`{"tag":"payRequest","callback":"%s/cb","k1":"challenge"}`, base)
			},
			want: Failed(DetailWrongTag),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newLNURLService(t)
			svc.metadata = tt.metadata
			svc.callback = tt.callback

			encoded, err := lnurl.EncodeURL(svc.srv.URL + "/lnurl")
			require.NoError(t, err)

			o := NewOrchestrator(new(MockPayer), svc.factory(), quietLogger())
			out, err := o.PushWithdraw(context.Background(), "LIGHTNING:"+encoded, "lnbc1invoice")
			require.NoError(t, err)

			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.callbacks, svc.callbacks.Load())
			if tt.callbacks > 0 {
				assert.Equal(t, "challenge", svc.query("k1"))
				assert.Equal(t, "lnbc1invoice", svc.query("pr"))
			}
		})
	}
}

func TestOrchestrator_PushWithdraw_Unreachable(t *testing.T) {
	svc := newLNURLService(t)
	encoded, err := lnurl.EncodeURL(svc.srv.URL + "/lnurl")
	require.NoError(t, err)
	svc.srv.Close()

	o := NewOrchestrator(new(MockPayer), svc.factory(), quietLogger())
	out, err := o.PushWithdraw(context.Background(), encoded, "lnbc1invoice")

	require.NoError(t, err)
	assert.Equal(t, Failed(DetailUnexpectedError), out)
}

func TestOrchestrator_PushWithdraw_InvalidLNURL(t *testing.T) {
	o := NewOrchestrator(new(MockPayer), func() LNURLClient {
		t.Fatal("no client expected for an undecodable lnurl")
		return nil
	}, quietLogger())

	for _, raw := range []string{"lightning:LNURL1NOTBECH32", "http://withdraw.example.com/lnurlw/abc"} {
		_, err := o.PushWithdraw(context.Background(), raw, "lnbc1invoice")

		var decodeErr *lnurl.DecodeError
		assert.ErrorAs(t, err, &decodeErr, raw)
	}
}

// closeCounter wraps a client and counts Close calls.
type closeCounter struct {
	LNURLClient
	closed *atomic.Int32
}

func (c closeCounter) Close() {
	c.closed.Add(1)
	c.LNURLClient.Close()
}

func TestOrchestrator_ReleasesClient(t *testing.T) {
	svc := newLNURLService(t)
	svc.metadata = payMetadata(1000, 500000)
	svc.callback = reply(`{"pr":"lnbc1test"}`)

	var opened, closed atomic.Int32
	inner := svc.factory()
	factory := func() LNURLClient {
		opened.Add(1)
		return closeCounter{LNURLClient: inner(), closed: &closed}
	}

	payer := new(MockPayer)
	payer.On("PayInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("hash", nil)
	o := NewOrchestrator(payer, factory, quietLogger())

	o.PullATM(context.Background(), atmTerminal(), 10, svc.srv.URL+"/lnurl")
	o.PullATM(context.Background(), atmTerminal(), 10000, svc.srv.URL+"/lnurl")
	o.PushWithdraw(context.Background(), svc.srv.URL+"/lnurl", "lnbc1invoice")

	assert.Equal(t, int32(3), opened.Load())
	assert.Equal(t, opened.Load(), closed.Load())
}
