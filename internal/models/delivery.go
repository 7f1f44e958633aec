package models

import "time"

// DeliveryRecord is one notification attempt as written to the delivery log.
type DeliveryRecord struct {
	ID          string    `json:"id" dynamodbav:"id"`
	Channel     string    `json:"channel" dynamodbav:"channel"`
	Purpose     string    `json:"purpose" dynamodbav:"purpose"`
	Destination string    `json:"destination" dynamodbav:"destination"`
	Status      string    `json:"status" dynamodbav:"status"`
	Provider    string    `json:"provider" dynamodbav:"provider"`
	Error       string    `json:"error,omitempty" dynamodbav:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt   time.Time `json:"expires_at" dynamodbav:"-"`
}

func (d *DeliveryRecord) GetPK() string {
	return "DELIVERY#" + d.ID
}

func (d *DeliveryRecord) GetSK() string {
	return "METADATA"
}
