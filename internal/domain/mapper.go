package domain

import (
	"strings"
	"time"
)

// ToResponse converts a player to its API shape, computing age at now.
func ToResponse(p *Player, now time.Time) *PlayerResponse {
	if p == nil {
		return nil
	}
	return &PlayerResponse{
		ID:        p.ID,
		Name:      p.Name,
		Birthday:  p.Birthday,
		ImageName: p.ImageName,
		Status:    p.Status,
		Age:       AgeAt(p.Birthday, now),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToResponses maps a slice, never returning nil so empty lists encode as [].
func ToResponses(players []Player, now time.Time) []PlayerResponse {
	out := make([]PlayerResponse, 0, len(players))
	for i := range players {
		out = append(out, *ToResponse(&players[i], now))
	}
	return out
}

// ToEntity builds a new, unsaved player from a request.
// The request is expected to have passed ValidatePlayerRequest.
func ToEntity(req *PlayerRequest) *Player {
	if req == nil {
		return nil
	}
	p := &Player{}
	ApplyUpdate(req, p)
	return p
}

// ApplyUpdate overwrites the writable fields of p. ID and timestamps are left alone.
func ApplyUpdate(req *PlayerRequest, p *Player) {
	if req == nil || p == nil {
		return
	}
	p.Name = strings.TrimSpace(req.Name)
	if req.Birthday != nil {
		p.Birthday = *req.Birthday
	}
	p.ImageName = nil
	if req.ImageName != nil && strings.TrimSpace(*req.ImageName) != "" {
		name := strings.TrimSpace(*req.ImageName)
		p.ImageName = &name
	}
	p.Status = StatusActive
	if st, err := ParseStatus(req.Status); err == nil {
		p.Status = st
	}
}
