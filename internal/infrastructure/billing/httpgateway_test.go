package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterd-io/meterd/internal/shared/config"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// nopLogger is a no-op logger for testing.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }

func newTestGateway(t *testing.T, handler http.HandlerFunc) *HTTPGateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewHTTPGateway(&config.BillingConfig{
		APIURL:     server.URL,
		Identifier: "ident",
		Secret:     "secret",
		Timeout:    2 * time.Second,
	}, newNopLogger())
}

func TestGetNextDueDate(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "GetServiceDetails", r.PostFormValue("action"))
		assert.Equal(t, "SVC-1", r.PostFormValue("sid"))
		assert.Equal(t, "ident", r.PostFormValue("identifier"))
		assert.Equal(t, "json", r.PostFormValue("responsetype"))

		w.Write([]byte(`{"result":"success","status":"Active","nextduedate":"2025-07-31"}`))
	})

	due, err := gw.GetNextDueDate(context.Background(), "SVC-1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), due)
}

func TestGetNextDueDateUnparseable(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"success","nextduedate":"31/07/2025"}`))
	})

	_, err := gw.GetNextDueDate(context.Background(), "SVC-1")
	assert.Error(t, err)
}

func TestGetNextDueDateServiceMissing(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"error","message":"Service ID Not Found"}`))
	})

	_, err := gw.GetNextDueDate(context.Background(), "SVC-1")
	assert.True(t, apperrors.IsNotFoundError(err), "got %v", err)
}

func TestChargeForResetAccepted(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ChargeTrafficReset", r.PostFormValue("action"))
		assert.Equal(t, "5.00", r.PostFormValue("amount"))

		w.Write([]byte(`{"result":"success"}`))
	})

	assert.NoError(t, gw.ChargeForReset(context.Background(), "SVC-1", 5.0))
}

func TestChargeForResetDeclined(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"error","message":"insufficient credit"}`))
	})

	err := gw.ChargeForReset(context.Background(), "SVC-1", 5.0)
	assert.True(t, apperrors.IsChargeFailedError(err), "a declined charge must be distinguishable, got %v", err)
}

func TestPostNon200(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := gw.GetNextDueDate(context.Background(), "SVC-1")
	assert.Error(t, err)
	assert.False(t, apperrors.IsChargeFailedError(err))
}

func TestGetBillingStatus(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"success","status":"Suspended","nextduedate":"2025-07-31"}`))
	})

	status, err := gw.GetBillingStatus(context.Background(), "SVC-1")
	require.NoError(t, err)
	assert.Equal(t, "Suspended", string(status))
}
