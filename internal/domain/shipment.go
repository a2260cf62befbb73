package domain

import "time"

// Receiver identifies the receiving party of a shipment. Email doubles as
// the receiver's join key and is immutable after creation.
type Receiver struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Address string `json:"address"`
}

// Driver describes the carrier bound to a shipment. Absent until a claim
// succeeds.
type Driver struct {
	Name     string  `json:"name"`
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	CarPlate string  `json:"carPlate"`
	Fee      float64 `json:"fee"`
}

// Goods describes what is being shipped.
type Goods struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// GeoPoint is a single position report from the driver.
type GeoPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// Shipment is the single record shared by sender, driver and receiver.
type Shipment struct {
	ID        string `json:"id"`
	HumanCode string `json:"humanCode"`
	Status    Status `json:"status"`
	SenderID  string `json:"senderId"`

	Receiver Receiver `json:"receiver"`
	Driver   *Driver  `json:"driver,omitempty"`
	Goods    Goods    `json:"goods"`

	CurrentLocation   *GeoPoint `json:"currentLocation,omitempty"`
	SignatureArtifact string    `json:"signatureArtifact,omitempty"`

	PaymentStatus PaymentStatus `json:"paymentStatus"`

	CreatedAt   time.Time  `json:"createdAt"`
	ClaimedAt   *time.Time `json:"claimedAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`

	SenderArchived   bool `json:"senderArchived"`
	DriverArchived   bool `json:"driverArchived"`
	DriverDeleted    bool `json:"driverDeleted"`
	ReceiverArchived bool `json:"receiverArchived"`
	ReceiverDeleted  bool `json:"receiverDeleted"`
}

// HasDriver reports whether a driver is bound to the shipment.
func (s *Shipment) HasDriver() bool {
	return s.Driver != nil && s.Driver.Email != ""
}

// Field paths used for partial document updates. The lifecycle writes
// every transition as a single update over these paths.
const (
	FieldStatus            = "status"
	FieldDriver            = "driver"
	FieldReceiver          = "receiver"
	FieldGoods             = "goods"
	FieldCurrentLocation   = "currentLocation"
	FieldSignatureArtifact = "signatureArtifact"
	FieldPaymentStatus     = "paymentStatus"
	FieldClaimedAt         = "claimedAt"
	FieldDeliveredAt       = "deliveredAt"
	FieldPaidAt            = "paidAt"
	FieldSenderArchived    = "senderArchived"
	FieldDriverArchived    = "driverArchived"
	FieldDriverDeleted     = "driverDeleted"
	FieldReceiverArchived  = "receiverArchived"
	FieldReceiverDeleted   = "receiverDeleted"
	FieldReceiverEmail     = "receiver.email"
	FieldDriverEmail       = "driver.email"
	FieldHumanCode         = "humanCode"
	FieldSenderID          = "senderId"
)
