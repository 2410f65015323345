package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/fleetpro/fleet-maintenance/internal/fleet"
)

// usageTopic matches per-vehicle meter readings: fleet/<vehicle-id>/usage.
const usageTopic = "fleet/+/usage"

// UsageReading is the payload published by on-board meters: an odometer
// reading for road vehicles, an hour-meter reading for construction
// machines. VehicleID may be omitted when the topic carries it.
type UsageReading struct {
	VehicleID string  `json:"vehicle_id,omitempty"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// Ingestor feeds usage readings from an MQTT broker into the fleet.
type Ingestor struct {
	fleet  *fleet.Fleet
	client mqtt.Client
}

// NewIngestor connects to the broker and returns an ingestor ready to
// subscribe.
func NewIngestor(brokerURL, clientID string, f *fleet.Fleet) (*Ingestor, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, errors.New("mqtt connect: timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return &Ingestor{fleet: f, client: client}, nil
}

// Start subscribes to the usage topic. Readings that fail to apply are
// logged and dropped; the subscription stays up.
func (i *Ingestor) Start() error {
	token := i.client.Subscribe(usageTopic, 1, i.handleUsage)
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New("mqtt subscribe: timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe: %w", err)
	}
	log.WithField("topic", usageTopic).Info("Subscribed to usage readings")
	return nil
}

// Stop unsubscribes and disconnects.
func (i *Ingestor) Stop() {
	i.client.Unsubscribe(usageTopic)
	i.client.Disconnect(250)
}

func (i *Ingestor) handleUsage(_ mqtt.Client, msg mqtt.Message) {
	var reading UsageReading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropping malformed usage reading")
		return
	}
	if reading.VehicleID == "" {
		reading.VehicleID = vehicleIDFromTopic(msg.Topic())
	}
	if reading.VehicleID == "" {
		log.WithField("topic", msg.Topic()).Warn("Dropping usage reading without vehicle id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := i.fleet.RecordUsageUpdate(ctx, reading.VehicleID, reading.Value)
	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"vehicle_id": reading.VehicleID,
			"value":      reading.Value,
		}).Debug("Applied usage reading")
	case errors.Is(err, fleet.ErrVehicleNotFound):
		log.WithField("vehicle_id", reading.VehicleID).Warn("Usage reading for unknown vehicle")
	case errors.Is(err, fleet.ErrUsageDecrease):
		log.WithFields(log.Fields{
			"vehicle_id": reading.VehicleID,
			"value":      reading.Value,
		}).Warn("Rejected decreasing usage reading")
	default:
		log.WithError(err).WithField("vehicle_id", reading.VehicleID).Error("Failed to apply usage reading")
	}
}

// vehicleIDFromTopic extracts the id segment from fleet/<id>/usage.
func vehicleIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "fleet" || parts[2] != "usage" {
		return ""
	}
	return parts[1]
}
