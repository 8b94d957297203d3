package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishSubscribe(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub := h.Subscribe("photo.*")
	defer h.Unsubscribe(sub)

	h.Publish(PhotoCached, Data{"photo_id": "p1"})
	h.Publish(PinDeleted, Data{"pin_id": "x"})

	select {
	case msg := <-sub.Receiver:
		assert.Equal(t, PhotoCached, msg.Name)
		assert.Equal(t, "p1", msg.Fields["photo_id"])
	case <-time.After(time.Second):
		require.Fail(t, "メッセージを受信できませんでした")
	}

	select {
	case msg := <-sub.Receiver:
		t.Fatalf("購読していないトピックを受信: %s", msg.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSetLogLevel(t *testing.T) {
	SetLogLevel("debug")
	assert.Equal(t, "debug", Log.GetLevel().String())

	SetLogLevel("nonsense")
	assert.Equal(t, "info", Log.GetLevel().String())
}
