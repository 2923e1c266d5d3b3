package messages

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/metrics"
	"github.com/vovakirdan/chatline-server/internal/store/sqlite"
)

func newTestService(st *memStore, pub *recorder, opts ...Option) *Service {
	return New(NewRepository(st, nil), pub, nil, opts...)
}

func TestIngestPersistsThenBroadcasts(t *testing.T) {
	req := require.New(t)
	st, pub := &memStore{}, &recorder{}
	svc := newTestService(st, pub)

	// Given a well-formed candidate
	msg, err := svc.Ingest(context.Background(), core.Candidate{
		Text:      " Hello ",
		Author:    "Alice",
		Timestamp: "2024-06-04T00:00:00Z",
	})

	// Then it is stored and broadcast exactly once
	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.Equal("Hello", msg.Text)
	req.True(msg.Timestamp.Equal(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)))
	req.Equal(1, st.count())

	events := pub.snapshot()
	req.Len(events, 1)
	req.Equal(core.TopicMessageUpdate, events[0].topic)
	req.Equal(core.MessageUpdate{Msg: msg}, events[0].payload)
}

func TestIngestRejectsBlankContentWithoutSideEffects(t *testing.T) {
	cases := map[string]core.Candidate{
		"empty text":        {Text: "", Author: "Alice", Timestamp: "2024-06-04"},
		"whitespace text":   {Text: "   ", Author: "Alice", Timestamp: "2024-06-04"},
		"empty author":      {Text: "hi", Author: "", Timestamp: "2024-06-04"},
		"whitespace author": {Text: "hi", Author: "\t\n", Timestamp: "2024-06-04"},
		"bad timestamp":     {Text: "hi", Author: "Alice", Timestamp: "not a date"},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			st, pub := &memStore{}, &recorder{}

			_, err := newTestService(st, pub).Ingest(context.Background(), c)

			req.ErrorIs(err, core.ErrInvalidMessage)
			req.Zero(st.count())
			req.Empty(pub.snapshot())
		})
	}
}

func TestIngestRejectsMissingFieldsAsInvalidRequest(t *testing.T) {
	req := require.New(t)
	st, pub := &memStore{}, &recorder{}

	_, err := newTestService(st, pub).Ingest(context.Background(), core.Candidate{Text: "hi", Author: "Alice"})

	req.ErrorIs(err, core.ErrInvalidRequest)
	req.Zero(st.count())
	req.Empty(pub.snapshot())
}

func TestIngestStoreFailureDoesNotBroadcast(t *testing.T) {
	req := require.New(t)
	st, pub := &memStore{failSave: true}, &recorder{}

	_, err := newTestService(st, pub).Ingest(context.Background(), core.Candidate{
		Text: "hi", Author: "Alice", Timestamp: "2024-06-04",
	})

	req.ErrorIs(err, core.ErrStorage)
	req.Empty(pub.snapshot())
}

func TestIngestSucceedsWhenBroadcastFails(t *testing.T) {
	req := require.New(t)
	st, pub := &memStore{}, &recorder{err: errors.New("hub stopped")}

	msg, err := newTestService(st, pub).Ingest(context.Background(), core.Candidate{
		Text: "hi", Author: "Alice", Timestamp: "2024-06-04",
	})

	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.Equal(1, st.count())
}

func TestBroadcastCountsResultPerSink(t *testing.T) {
	req := require.New(t)
	hub, remote := &recorder{}, &recorder{err: errors.New("redis down")}
	fanout := core.Fanout{{Name: "hub", Publisher: hub}, {Name: "redis", Publisher: remote}}
	svc := New(NewRepository(&memStore{}, nil), fanout, nil)

	counter := func(sink, result string) float64 {
		return testutil.ToFloat64(metrics.BroadcastsPublished.WithLabelValues(core.TopicMessageUpdate, sink, result))
	}
	hubOK, hubErr, redisErr := counter("hub", "ok"), counter("hub", "error"), counter("redis", "error")

	_, err := svc.Ingest(context.Background(), core.Candidate{Text: "hi", Author: "Alice", Timestamp: "2024-06-04"})
	req.NoError(err)

	req.Len(hub.snapshot(), 1)
	req.Equal(hubOK+1, counter("hub", "ok"))
	req.Equal(hubErr, counter("hub", "error"))
	req.Equal(redisErr+1, counter("redis", "error"))
}

func TestIngestSanitizesMarkup(t *testing.T) {
	req := require.New(t)
	st, pub := &memStore{}, &recorder{}
	svc := newTestService(st, pub, WithSanitizer(StrictSanitizer()))

	msg, err := svc.Ingest(context.Background(), core.Candidate{
		Text: "<b>bold</b> move", Author: "Alice", Timestamp: "2024-06-04",
	})
	req.NoError(err)
	req.Equal("bold move", msg.Text)

	// Given text made only of markup, nothing is left to persist
	_, err = svc.Ingest(context.Background(), core.Candidate{
		Text: "<script>alert(1)</script>", Author: "Alice", Timestamp: "2024-06-04",
	})
	req.ErrorIs(err, core.ErrInvalidMessage)
	req.Equal(1, st.count())
	req.Len(pub.snapshot(), 1)
}

func TestListIsSortedAndRepeatable(t *testing.T) {
	req := require.New(t)
	st, pub := &memStore{}, &recorder{}
	svc := newTestService(st, pub)
	ctx := context.Background()

	for _, ts := range []string{"2024-06-05", "2024-06-03", "2024-06-04"} {
		_, err := svc.Ingest(ctx, core.Candidate{Text: ts, Author: "Alice", Timestamp: ts})
		req.NoError(err)
	}

	first := svc.List(ctx)
	second := svc.List(ctx)
	req.Equal(first, second)
	req.Len(first, 3)
	req.Equal("2024-06-03", first[0].Text)
	req.Equal("2024-06-05", first[2].Text)
}

func TestListEmptyStore(t *testing.T) {
	req := require.New(t)
	listed := newTestService(&memStore{}, &recorder{}).List(context.Background())
	req.NotNil(listed)
	req.Empty(listed)
}

func TestIngestConcurrentWithSQLite(t *testing.T) {
	req := require.New(t)
	st, err := sqlite.New(":memory:")
	req.NoError(err)
	t.Cleanup(func() { _ = st.Close() })

	pub := &recorder{}
	svc := New(NewRepository(st, nil), pub, nil)
	ctx := context.Background()
	base := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Spread timestamps in reverse so arrival order differs from timestamp order.
			ts := base.Add(time.Duration(n-i) * time.Minute)
			_, err := svc.Ingest(ctx, core.Candidate{
				Text:      fmt.Sprintf("msg-%d", i),
				Author:    "Alice",
				Timestamp: float64(ts.UnixMilli()),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	events := pub.snapshot()
	req.Len(events, n)

	listed := svc.List(ctx)
	req.Len(listed, n)

	ids := make(map[string]bool, n)
	for _, m := range listed {
		ids[m.ID] = true
	}
	req.Len(ids, n)
	for _, e := range events {
		update, ok := e.payload.(core.MessageUpdate)
		req.True(ok)
		req.True(ids[update.Msg.ID], "published message %s missing from list", update.Msg.ID)
	}

	for i := 1; i < len(listed); i++ {
		req.False(listed[i].Timestamp.Before(listed[i-1].Timestamp), "list not sorted at %d", i)
	}
}

func TestIngestTimestampBoundaries(t *testing.T) {
	accepted := map[string]any{
		"year one":             "0001-01-01",
		"before 1678":          "1000-01-01",
		"last millis of 9999":  float64(253402300799999),
		"after 2262 as millis": float64(10000000000000),
		"last instant of 9999": "9999-12-31T23:59:59.999Z",
	}
	for name, ts := range accepted {
		t.Run("accepts "+name, func(t *testing.T) {
			req := require.New(t)
			st, err := sqlite.New(":memory:")
			req.NoError(err)
			t.Cleanup(func() { _ = st.Close() })
			svc := New(NewRepository(st, nil), &recorder{}, nil)
			ctx := context.Background()

			msg, err := svc.Ingest(ctx, core.Candidate{Text: "hi", Author: "Alice", Timestamp: ts})
			req.NoError(err)

			listed := svc.List(ctx)
			req.Len(listed, 1)
			req.True(listed[0].Timestamp.Equal(msg.Timestamp), "stored %v, listed %v", msg.Timestamp, listed[0].Timestamp)
		})
	}

	rejected := map[string]any{
		"year 10000 millis": float64(1e15),
		"beyond JS range":   float64(8.64e15 + 1),
		"beyond int64":      float64(1e19),
		"before year one":   float64(-62135596800001),
	}
	for name, ts := range rejected {
		t.Run("rejects "+name, func(t *testing.T) {
			req := require.New(t)
			st, pub := &memStore{}, &recorder{}

			_, err := newTestService(st, pub).Ingest(context.Background(), core.Candidate{Text: "hi", Author: "Alice", Timestamp: ts})

			req.ErrorIs(err, core.ErrInvalidMessage)
			req.Zero(st.count())
			req.Empty(pub.snapshot())
		})
	}
}
