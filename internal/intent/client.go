package intent

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ran-controller/ran-controller-pro/internal/session"
)

// Subjects used for point-of-attachment intents
const (
	SubjectAdd    = "intent.poa.add"
	SubjectUpdate = "intent.poa.update"
	SubjectRemove = "intent.poa.remove"
)

// Publisher is satisfied by *nats.Conn
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Request is the payload published for every intent change
type Request struct {
	UUID uuid.UUID    `json:"uuid"`
	POA  *session.POA `json:"poa,omitempty"`
}

// Client publishes POA intents without waiting for the intent service.
// The id is allocated locally so callers never block on a round trip.
type Client struct {
	nc Publisher
}

// NewClient creates an intent client; a nil publisher turns it into a no-op
func NewClient(nc Publisher) *Client {
	return &Client{nc: nc}
}

// AddPOA allocates an id and publishes the new intent
func (c *Client) AddPOA(poa session.POA) uuid.UUID {
	id := uuid.New()
	c.publish(SubjectAdd, Request{UUID: id, POA: &poa})
	return id
}

// UpdatePOA republishes an existing intent
func (c *Client) UpdatePOA(id uuid.UUID, poa session.POA) {
	c.publish(SubjectUpdate, Request{UUID: id, POA: &poa})
}

// RemovePOA withdraws an intent
func (c *Client) RemovePOA(id uuid.UUID) {
	c.publish(SubjectRemove, Request{UUID: id})
}

func (c *Client) publish(subject string, req Request) {
	if c.nc == nil {
		return
	}

	data, err := json.Marshal(req)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("Failed to marshal intent")
		return
	}

	if err := c.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).
			Str("subject", subject).
			Str("uuid", req.UUID.String()).
			Msg("Failed to publish intent")
	}
}
