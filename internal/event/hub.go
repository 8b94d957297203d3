package event

import (
	"github.com/leandro-lugaresi/hub"
)

type Data = hub.Fields
type Message = hub.Message
type Subscription = hub.Subscription

const (
	PinPlacing     = "pin.placing"
	PinMoved       = "pin.moved"
	PinCommitted   = "pin.committed"
	PinCancelled   = "pin.cancelled"
	PinDeleted     = "pin.deleted"
	PhotoDeleted   = "photo.deleted"
	PhotosReplaced = "photos.replaced"
	PhotoCached    = "photo.cached"
	PhotoFailed    = "photo.failed"
)

var channelCap = 100

// Publisher イベントの発行先。コントローラやキャッシュマネージャに注入される
type Publisher interface {
	Publish(topic string, data Data)
}

// Hub hub.Hubのラッパー
type Hub struct {
	hub *hub.Hub
}

// NewHub 新しいイベントハブを作成
func NewHub() *Hub {
	return &Hub{hub: hub.New()}
}

func (h *Hub) Publish(topic string, data Data) {
	h.hub.Publish(Message{
		Name:   topic,
		Fields: data,
	})
}

// Subscribe 非ブロッキングで購読する。バッファが溢れたメッセージは破棄される
func (h *Hub) Subscribe(topics ...string) Subscription {
	return h.hub.NonBlockingSubscribe(channelCap, topics...)
}

func (h *Hub) Unsubscribe(s Subscription) {
	h.hub.Unsubscribe(s)
}

func (h *Hub) Close() {
	h.hub.Close()
}

// Discard 何も発行しないPublisher
type Discard struct{}

func (Discard) Publish(string, Data) {}
