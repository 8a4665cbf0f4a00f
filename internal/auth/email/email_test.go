package email

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestLogSender(t *testing.T) {
	t.Parallel()

	t.Run("info hides the body", func(t *testing.T) {
		var buf bytes.Buffer
		s := LogSender{Logger: slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))}

		err := s.Send(context.Background(), domain.MustParseEmail("a@example.com"), "Your code", "code 123456")
		require.NoError(t, err)
		require.Contains(t, buf.String(), "a@example.com")
		require.Contains(t, buf.String(), "Your code")
		require.NotContains(t, buf.String(), "123456")
	})

	t.Run("debug shows the body", func(t *testing.T) {
		var buf bytes.Buffer
		s := LogSender{Logger: slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

		err := s.Send(context.Background(), domain.MustParseEmail("a@example.com"), "Your code", "code 123456")
		require.NoError(t, err)
		require.Contains(t, buf.String(), "123456")
	})
}

func TestNewPostmarkSender(t *testing.T) {
	t.Parallel()

	_, err := NewPostmarkSender("", "", "from@example.com", 0)
	require.Error(t, err)

	_, err = NewPostmarkSender("", "token", "", 0)
	require.Error(t, err)

	s, err := NewPostmarkSender("", "token", "from@example.com", 0)
	require.NoError(t, err)
	require.Equal(t, DefaultPostmarkBaseURL, s.BaseURL)
	require.Equal(t, defaultPostmarkTimeout, s.Client.Timeout)
}

func TestPostmarkSender(t *testing.T) {
	t.Parallel()

	t.Run("sends the message", func(t *testing.T) {
		var got postmarkMessage
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/email", r.URL.Path)
			require.Equal(t, "server-token", r.Header.Get(postmarkTokenHeader))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ErrorCode":0,"Message":"OK","MessageID":"abc"}`))
		}))
		t.Cleanup(srv.Close)

		s, err := NewPostmarkSender(srv.URL+"/", "server-token", "noreply@example.com", time.Second)
		require.NoError(t, err)

		err = s.Send(context.Background(), domain.MustParseEmail("a@example.com"), "Your code", "123456")
		require.NoError(t, err)
		require.Equal(t, "noreply@example.com", got.From)
		require.Equal(t, "a@example.com", got.To)
		require.Equal(t, "Your code", got.Subject)
		require.Equal(t, "123456", got.TextBody)
		require.Equal(t, "outbound", got.MessageStream)
	})

	t.Run("reports api errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
		}))
		t.Cleanup(srv.Close)

		s, err := NewPostmarkSender(srv.URL, "server-token", "noreply@example.com", time.Second)
		require.NoError(t, err)

		err = s.Send(context.Background(), domain.MustParseEmail("a@example.com"), "s", "b")
		require.ErrorIs(t, err, ErrDelivery)
		require.Contains(t, err.Error(), "Invalid email request")
	})

	t.Run("honours the context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		t.Cleanup(srv.Close)

		s, err := NewPostmarkSender(srv.URL, "server-token", "noreply@example.com", time.Minute)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err = s.Send(ctx, domain.MustParseEmail("a@example.com"), "s", "b")
		require.ErrorIs(t, err, ErrDelivery)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
