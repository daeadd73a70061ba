package transport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemill/effectum/transport"
)

func TestHTTP_Request(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	tr := &transport.HTTP{Client: srv.Client()}
	resp, err := tr.Request(context.Background(), transport.Get(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.Equal(t, "short and stout", string(resp.Body))
}

func TestHTTP_ConnectionFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listening anymore

	tr := &transport.HTTP{}
	_, err := tr.Request(context.Background(), transport.Get(url))
	require.Error(t, err)

	var fault *transport.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, url, fault.Target.URL)
}

func TestHTTP_ContextAbort(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := (&transport.HTTP{Client: srv.Client()}).Request(ctx, transport.Get(srv.URL))
		done <- err
	}()
	cancel()

	err := <-done
	var fault *transport.Fault
	require.ErrorAs(t, err, &fault)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMock_Script(t *testing.T) {
	cause := errors.New("refused")
	mock := transport.NewMock().
		Respond(200, `ok`).
		Fail(cause)

	resp, err := mock.Request(context.Background(), transport.Get("http://x"))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)

	_, err = mock.Request(context.Background(), transport.Get("http://x"))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 2, mock.Calls())
}

func TestStatusFault_Error(t *testing.T) {
	assert.Contains(t, (&transport.StatusFault{Status: 404}).Error(), "404")
}
