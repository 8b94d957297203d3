package handler

import (
	"time"

	"VirtualTourist-App/internal/domain/model"
)

type photoResponse struct {
	ID        string           `json:"id"`
	RemoteURL string           `json:"remote_url"`
	State     model.PhotoState `json:"state"`
	ImageURL  string           `json:"image_url,omitempty"`
}

type pinResponse struct {
	ID         string          `json:"id"`
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	PageCursor *int            `json:"page_cursor,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Photos     []photoResponse `json:"photos"`
}

func toPhotoResponse(p *model.Photo) photoResponse {
	r := photoResponse{ID: p.ID, RemoteURL: p.RemoteURL, State: p.State()}
	if p.HasCachedFile() {
		r.ImageURL = "/api/photos/" + p.ID + "/image"
	}
	return r
}

func toPinResponse(p *model.Pin) pinResponse {
	photos := make([]photoResponse, len(p.Photos))
	for i, photo := range p.Photos {
		photos[i] = toPhotoResponse(photo)
	}
	return pinResponse{
		ID:         p.ID,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		PageCursor: p.PageCursor,
		CreatedAt:  p.CreatedAt,
		Photos:     photos,
	}
}

func toPinResponses(pins []*model.Pin) []pinResponse {
	out := make([]pinResponse, len(pins))
	for i, p := range pins {
		out[i] = toPinResponse(p)
	}
	return out
}

func toPhotoResponses(photos []*model.Photo) []photoResponse {
	out := make([]photoResponse, len(photos))
	for i, p := range photos {
		out[i] = toPhotoResponse(p)
	}
	return out
}
