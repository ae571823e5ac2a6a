package toncenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentSeqnoCachesWithinWindow(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getMasterchainInfo", r.URL.Path)
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"ok":true,"result":{"last":{"seqno":9000000}}}`)
	}))
	defer srv.Close()

	current := time.Unix(1_700_000_000, 0)
	client := NewClient(srv.URL, 60*time.Second)
	client.cache.now = func() time.Time { return current }

	assert.Equal(t, int64(9000000), client.CurrentSeqno(context.Background()))
	assert.Equal(t, int64(9000000), client.CurrentSeqno(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call within the window must not hit upstream")

	current = current.Add(61 * time.Second)
	assert.Equal(t, int64(9000000), client.CurrentSeqno(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCurrentSeqnoFallsBackToStaleValue(t *testing.T) {
	var calls int32
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":{"last":{"seqno":9000000}}}`)
	}))
	defer srv.Close()

	current := time.Unix(1_700_000_000, 0)
	client := NewClient(srv.URL, 60*time.Second)
	client.cache.now = func() time.Time { return current }

	require.Equal(t, int64(9000000), client.CurrentSeqno(context.Background()))

	failing.Store(true)
	current = current.Add(2 * time.Minute)

	assert.Equal(t, int64(9000000), client.CurrentSeqno(context.Background()))
	assert.Equal(t, int64(9000000), client.CurrentSeqno(context.Background()))
	// failed refreshes must not extend the window, so both calls hit upstream
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCurrentSeqnoZeroWhenNeverFetched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 60*time.Second)
	assert.Equal(t, int64(0), client.CurrentSeqno(context.Background()))
}

func TestRunGetMethodSendsPinnedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/runGetMethod", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req runGetMethodRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "EQC_contract", req.Address)
		assert.Equal(t, "get_nft_address_by_index", req.Method)
		assert.Equal(t, [][]string{{"num", "12345"}}, req.Stack)
		assert.Equal(t, int64(9000000), req.Seqno)

		fmt.Fprint(w, `{"ok":true,"result":{"exit_code":0,"stack":[["cell",{"bytes":"dGVzdA=="}]]}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Minute)
	result, err := client.RunGetMethod(context.Background(), "EQC_contract", "get_nft_address_by_index", [][]string{{"num", "12345"}}, 9000000)
	require.NoError(t, err)

	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 0, *result.ExitCode)
	require.Len(t, result.Stack, 1)
	assert.Equal(t, "cell", result.Stack[0].Type)

	boc, ok := result.Stack[0].CellBytes()
	require.True(t, ok)
	assert.Equal(t, "dGVzdA==", boc)
}

func TestRunGetMethodErrorMapping(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":false,"error":"LITE_SERVER_UNKNOWN"}`)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, time.Minute)
		_, err := client.RunGetMethod(context.Background(), "a", "m", nil, 1)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "LITE_SERVER_UNKNOWN", apiErr.Message)
	})

	t.Run("api error without message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":false}`)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, time.Minute)
		_, err := client.RunGetMethod(context.Background(), "a", "m", nil, 1)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Unknown error", apiErr.Message)
	})

	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, time.Minute)
		_, err := client.RunGetMethod(context.Background(), "a", "m", nil, 1)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	})

	t.Run("missing result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":true}`)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, time.Minute)
		_, err := client.RunGetMethod(context.Background(), "a", "m", nil, 1)
		require.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>gateway</html>")
		}))
		defer srv.Close()

		client := NewClient(srv.URL, time.Minute)
		_, err := client.RunGetMethod(context.Background(), "a", "m", nil, 1)
		require.ErrorIs(t, err, ErrInvalidResponse)
	})
}

// A result object without exit_code or stack is still a successful reply;
// interpreting the shape belongs to the status service.
func TestRunGetMethodKeepsSparseResults(t *testing.T) {
	for name, body := range map[string]string{
		"empty object":     `{"ok":true,"result":{}}`,
		"unrelated fields": `{"ok":true,"result":{"gas_used":777}}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, time.Minute)
			result, err := client.RunGetMethod(context.Background(), "a", "m", nil, 1)
			require.NoError(t, err)
			assert.Nil(t, result.ExitCode)
			assert.Empty(t, result.Stack)
		})
	}
}

func TestIsAddressActive(t *testing.T) {
	t.Run("active", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/getAddressState", r.URL.Path)
			assert.Equal(t, "EQC_some_address", r.URL.Query().Get("address"))
			fmt.Fprint(w, `{"ok":true,"result":"active"}`)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, time.Minute)
		assert.True(t, client.IsAddressActive(context.Background(), "EQC_some_address"))
	})

	t.Run("uninitialized", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":true,"result":"uninit"}`)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, time.Minute)
		assert.False(t, client.IsAddressActive(context.Background(), "EQC_some_address"))
	})

	t.Run("fails closed on http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, time.Minute)
		assert.False(t, client.IsAddressActive(context.Background(), "EQC_some_address"))
	})

	t.Run("fails closed on api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":false,"error":"timeout"}`)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, time.Minute)
		assert.False(t, client.IsAddressActive(context.Background(), "EQC_some_address"))
	})

	t.Run("fails closed on unreachable upstream", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client := NewClient(srv.URL, time.Minute)
		assert.False(t, client.IsAddressActive(context.Background(), "EQC_some_address"))
	})
}

func TestStackItemDecoding(t *testing.T) {
	var result RunResult
	raw := `{"exit_code":0,"stack":[["num","0x1"],["null",null],["cell",{"bytes":"abc"}]]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	require.Len(t, result.Stack, 3)

	num, ok := result.Stack[0].Num()
	assert.True(t, ok)
	assert.Equal(t, "0x1", num)

	assert.Equal(t, "null", result.Stack[1].Type)
	_, ok = result.Stack[1].CellBytes()
	assert.False(t, ok)

	boc, ok := result.Stack[2].CellBytes()
	assert.True(t, ok)
	assert.Equal(t, "abc", boc)

	var single RunResult
	require.NoError(t, json.Unmarshal([]byte(`{"stack":[["null"]]}`), &single))
	assert.Equal(t, "null", single.Stack[0].Type)
	assert.Nil(t, single.Stack[0].Value)

	var bad RunResult
	assert.Error(t, json.Unmarshal([]byte(`{"stack":[[]]}`), &bad))
}

func TestErrorsAreDistinguishable(t *testing.T) {
	var err error = &StatusError{Code: 502}
	assert.False(t, errors.Is(err, ErrInvalidResponse))
	assert.Equal(t, "unexpected upstream status 502", err.Error())

	err = &APIError{Message: "boom"}
	assert.Equal(t, "boom", err.Error())
}
