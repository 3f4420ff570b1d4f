package dto

import "Regnum/internal/game/event"

type DeclareWarReq struct {
	Defender string `json:"defender"`
	Region   string `json:"region"`
}

type ProposeAllianceReq struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

type AllianceReq struct {
	AllianceID int64 `json:"alliance_id"`
}

type ConquerReq struct {
	Region string `json:"region"`
}

type BuildReq struct {
	Region string `json:"region"`
	Type   string `json:"type"`
}

type UpgradeReq struct {
	BuildingID int64 `json:"building_id"`
}

type TrainReq struct {
	Region   string `json:"region"`
	Type     string `json:"type"`
	Quantity int64  `json:"quantity"`
}

// EventsReq limit <= 0 时由流水取默认值。
type EventsReq struct {
	Since uint64 `json:"since"`
	Limit int    `json:"limit"`
}

type EventsResp struct {
	Events []event.Event `json:"events"`
	// Next 下一次 since 该传的值。
	Next uint64 `json:"next"`
}

func NewEventsResp(since uint64, events []event.Event) EventsResp {
	next := since
	if n := len(events); n > 0 {
		next = events[n-1].Seq
	}
	if events == nil {
		events = []event.Event{}
	}
	return EventsResp{Events: events, Next: next}
}
