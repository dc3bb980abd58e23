// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

package models

// AIS feed wire format. Each inbound message is a tagged envelope carrying
// exactly one typed payload; the subscription filter restricts the feed to
// PositionReport and ShipStaticData.

// Message type tags used by the feed envelope and the subscription filter.
const (
	MessageTypePositionReport = "PositionReport"
	MessageTypeShipStaticData = "ShipStaticData"
)

// HeadingUnavailable is the AIS sentinel for "true heading not available".
const HeadingUnavailable = 511

// Subscription is the payload sent immediately after the websocket connect.
type Subscription struct {
	APIKey             string          `json:"APIKey"`
	BoundingBoxes      [][][2]float64  `json:"BoundingBoxes"`
	FilterMessageTypes []string        `json:"FilterMessageTypes"`
}

// Envelope is the tagged wrapper around every inbound feed message.
type Envelope struct {
	MessageType string   `json:"MessageType"`
	MetaData    MetaData `json:"MetaData"`
	Message     Payload  `json:"Message"`
}

// MetaData carries feed-level decoration alongside the raw AIS payload.
// ShipName here is the feed's best-effort name and may be present before any
// static report has been received for the vessel.
type MetaData struct {
	MMSI     int64  `json:"MMSI"`
	ShipName string `json:"ShipName"`
}

// Payload holds the typed message body keyed by its type name. Exactly one
// field is populated per envelope; unknown types leave both nil.
type Payload struct {
	PositionReport *PositionReport `json:"PositionReport,omitempty"`
	ShipStaticData *ShipStaticData `json:"ShipStaticData,omitempty"`
}

// PositionReport is an AIS class A position report (message types 1-3).
type PositionReport struct {
	UserID             int64   `json:"UserID"`
	Latitude           float64 `json:"Latitude"`
	Longitude          float64 `json:"Longitude"`
	Sog                float64 `json:"Sog"`
	Cog                float64 `json:"Cog"`
	TrueHeading        int     `json:"TrueHeading"`
	NavigationalStatus int     `json:"NavigationalStatus"`
}

// ShipStaticData is an AIS class A static and voyage report (message type 5).
type ShipStaticData struct {
	UserID      int64     `json:"UserID"`
	ImoNumber   int64     `json:"ImoNumber"`
	Name        string    `json:"Name"`
	Type        int       `json:"Type"`
	Dimension   Dimension `json:"Dimension"`
	Destination string    `json:"Destination"`
	CallSign    string    `json:"CallSign"`
}

// Dimension is the reported antenna-relative extent of the vessel in meters:
// A to bow, B to stern, C to port, D to starboard.
type Dimension struct {
	A float64 `json:"A"`
	B float64 `json:"B"`
	C float64 `json:"C"`
	D float64 `json:"D"`
}
