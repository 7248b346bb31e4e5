package chflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReceive(t *testing.T) {
	t.Run("value ready", func(t *testing.T) {
		ch := make(chan int, 1)
		ch <- 42

		v, ok := Receive(t.Context(), ch)
		assert.True(t, ok)
		assert.Equal(t, 42, v)
	})

	t.Run("context done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		v, ok := Receive(ctx, make(chan int))
		assert.False(t, ok)
		assert.Zero(t, v)
	})

	t.Run("closed channel", func(t *testing.T) {
		ch := make(chan string)
		close(ch)

		v, ok := Receive(t.Context(), ch)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("waits for a sender", func(t *testing.T) {
		ch := make(chan int)
		go func() { ch <- 7 }()

		v, ok := Receive(t.Context(), ch)
		assert.True(t, ok)
		assert.Equal(t, 7, v)
	})
}

func TestTryReceive(t *testing.T) {
	ch := make(chan int, 2)

	_, ok := TryReceive(ch)
	assert.False(t, ok, "empty channel")

	ch <- 1
	v, ok := TryReceive(ch)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	close(ch)
	_, ok = TryReceive(ch)
	assert.False(t, ok, "closed channel")
}

func TestSend(t *testing.T) {
	t.Run("room in buffer", func(t *testing.T) {
		ch := make(chan []int, 1)

		assert.True(t, Send(t.Context(), ch, []int{1, 2}))
		assert.Equal(t, []int{1, 2}, <-ch)
	})

	t.Run("context done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		ch := make(chan int)
		assert.False(t, Send(ctx, ch, 1))
	})

	t.Run("hands off to a receiver", func(t *testing.T) {
		ch := make(chan int)
		got := make(chan int)
		go func() {
			v, _ := Receive(t.Context(), ch)
			got <- v
		}()

		assert.True(t, Send(t.Context(), ch, 99))
		assert.Equal(t, 99, <-got)
	})
}
