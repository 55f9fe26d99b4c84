package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorRunsTasksInOrder(t *testing.T) {
	t.Parallel()

	a := newActor("s1", 8, nil)
	var mu sync.Mutex
	var got []int
	for i := range 5 {
		require.NoError(t, a.submit("task", func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
			return nil
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.run(ctx, nil)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 5
	}, time.Second, time.Millisecond)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestActorQueueFull(t *testing.T) {
	t.Parallel()

	a := newActor("s1", 1, nil)
	noop := func(context.Context) error { return nil }
	require.NoError(t, a.submit("first", noop))
	assert.ErrorIs(t, a.submit("second", noop), ErrSessionQueueFull)
}

func TestActorSurvivesPanicsAndErrors(t *testing.T) {
	t.Parallel()

	a := newActor("s1", 4, nil)
	failed := make(chan string, 2)
	done := make(chan struct{})
	require.NoError(t, a.submit("explode", func(context.Context) error { panic("boom") }))
	require.NoError(t, a.submit("fail", func(context.Context) error { return errors.New("failed") }))
	require.NoError(t, a.submit("after", func(context.Context) error {
		close(done)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.run(ctx, func(name string) { failed <- name })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("actor stopped after panic")
	}
	assert.Equal(t, "explode", <-failed)
	assert.Equal(t, "fail", <-failed)
}

func TestActorSkipsFailureAfterCancel(t *testing.T) {
	t.Parallel()

	a := newActor("s1", 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	failed := make(chan string, 1)
	require.NoError(t, a.submit("gone", func(context.Context) error {
		cancel()
		return errors.New("session gone")
	}))

	a.apply(ctx, <-a.queue, func(name string) { failed <- name })
	assert.Empty(t, failed)
}

func TestRendererEscapesRawHTML(t *testing.T) {
	t.Parallel()

	r := NewRenderer()
	out := r.HTML("Premium **₹15,000**\n<script>alert(1)</script>")
	assert.Contains(t, out, "<strong>₹15,000</strong>")
	assert.NotContains(t, out, "<script>")

	var nilRenderer *Renderer
	assert.Empty(t, nilRenderer.HTML("text"))
}
