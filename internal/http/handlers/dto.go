package handlers

import "shiptrack-service/internal/domain"

type createShipmentRequest struct {
	SenderID string          `json:"senderId"`
	Receiver domain.Receiver `json:"receiver"`
	Goods    domain.Goods    `json:"goods"`
}

type updateShipmentRequest struct {
	SenderID string          `json:"senderId"`
	Receiver domain.Receiver `json:"receiver"`
	Goods    domain.Goods    `json:"goods"`
}

type claimRequest struct {
	ShipmentID string        `json:"shipmentId,omitempty"`
	Code       string        `json:"code,omitempty"`
	Driver     domain.Driver `json:"driver"`
}

type claimResponse struct {
	Result   string           `json:"result"`
	Shipment *domain.Shipment `json:"shipment,omitempty"`
	Status   domain.Status    `json:"status,omitempty"`
}

type driverActionRequest struct {
	DriverEmail string `json:"driverEmail"`
}

type deliverRequest struct {
	DriverEmail string `json:"driverEmail"`
	Signature   string `json:"signature"`
}

type receiverActionRequest struct {
	ReceiverEmail string `json:"receiverEmail"`
}

type senderActionRequest struct {
	SenderID string `json:"senderId"`
}

type locationRequest struct {
	DriverEmail string          `json:"driverEmail"`
	Point       domain.GeoPoint `json:"point"`
}

type archiveRequest struct {
	Actor    string `json:"actor"`
	Archived bool   `json:"archived"`
}

type deleteRequest struct {
	Actor string `json:"actor"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type normalizeResponse struct {
	Migrated int `json:"migrated"`
}

var okStatus = statusResponse{Status: "ok"}
