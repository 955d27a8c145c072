package ioingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBarsCSV(t *testing.T) {
	t.Run("parses typed records", func(t *testing.T) {
		csv := "Date,Open,High,Low,Close,Volume\n" +
			"2024-01-02,185.5,187.1,184.9,186.3,40211800\n" +
			"2024-01-03,186.0,186.9,185.1,185.6,31405900\n"

		bars, err := parseBarsCSV(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, BarColumns, bars.Columns)
		require.Equal(t, 2, bars.Len())
		assert.Equal(t,
			[]any{"2024-01-02", 185.5, 187.1, 184.9, 186.3, int64(40211800)},
			bars.Records[0],
		)
	})

	t.Run("skips rows with empty prices", func(t *testing.T) {
		csv := "Date,Open,High,Low,Close,Volume\n" +
			"2024-01-02,185.5,187.1,184.9,186.3,40211800\n" +
			"2024-01-03,,,,,\n"

		bars, err := parseBarsCSV(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, bars.Len())
	})

	t.Run("missing volume becomes zero", func(t *testing.T) {
		csv := "Date,Open,High,Low,Close,Volume\n" +
			"2024-01-02,185.5,187.1,184.9,186.3,\n"

		bars, err := parseBarsCSV(strings.NewReader(csv))
		require.NoError(t, err)
		require.Equal(t, 1, bars.Len())
		assert.Equal(t, int64(0), bars.Records[0][5])
	})

	t.Run("fractional volume is truncated", func(t *testing.T) {
		csv := "Date,Open,High,Low,Close,Volume\n" +
			"2024-01-02,185.5,187.1,184.9,186.3,1200.5\n"

		bars, err := parseBarsCSV(strings.NewReader(csv))
		require.NoError(t, err)
		require.Equal(t, 1, bars.Len())
		assert.Equal(t, int64(1200), bars.Records[0][5])
	})

	t.Run("rejects unknown header", func(t *testing.T) {
		csv := "Timestamp,Open,High,Low,Close,Volume\n"

		_, err := parseBarsCSV(strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected CSV header")
	})

	t.Run("rejects malformed prices", func(t *testing.T) {
		csv := "Date,Open,High,Low,Close,Volume\n" +
			"2024-01-02,185.5,garbage,184.9,186.3,100\n"

		_, err := parseBarsCSV(strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad high value")
	})
}

func TestHTTPProviderDailyBars(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches and parses the symbol history", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				w.Write([]byte(
					"Date,Open,High,Low,Close,Volume\n" +
						"2024-01-02,185.5,187.1,184.9,186.3,40211800\n"))
			}))
		defer srv.Close()

		p := NewHTTPProvider(srv.URL)
		bars, err := p.DailyBars(ctx, "AAPL.US")
		require.NoError(t, err)
		assert.Equal(t, 1, bars.Len())
		assert.Equal(t, "s=aapl.us&i=d", gotQuery)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "throttled", http.StatusTooManyRequests)
			}))
		defer srv.Close()

		p := NewHTTPProvider(srv.URL)
		_, err := p.DailyBars(ctx, "AAPL.US")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})
}
