package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Vehicle mirrors the API payload for vehicle creation.
type Vehicle struct {
	ID                        string  `json:"id,omitempty"`
	VehicleNumber             string  `json:"vehicle_number"`
	Brand                     string  `json:"brand"`
	Model                     string  `json:"model"`
	LicensePlate              string  `json:"license_plate,omitempty"`
	RegistrationDate          string  `json:"registration_date"`
	PurchaseDate              string  `json:"purchase_date"`
	Type                      string  `json:"type"` // "road" or "construction"
	CurrentUsage              float64 `json:"current_usage"`
	MaintenanceFrequency      float64 `json:"maintenance_frequency"`
	MaintenanceIntervalMonths float64 `json:"maintenance_interval_months"`
	LastInspectionDate        string  `json:"last_inspection_date,omitempty"`
	InspectionIntervalMonths  float64 `json:"inspection_interval_months,omitempty"`
}

// UsageReading is the MQTT payload for a meter reading.
type UsageReading struct {
	VehicleID string  `json:"vehicle_id"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}

var authToken string

func authorizedPost(url string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func authorizedPut(url string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPut, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func login(apiURL, accessKey string) error {
	payload, _ := json.Marshal(map[string]string{"access_key": accessKey})
	resp, err := authorizedPost(apiURL+"/login", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	authToken = result.Token
	return nil
}

func createVehicle(apiURL, vtype string, index int) (string, float64, error) {
	brands := map[string][]string{
		"road":         {"Iveco", "Fiat", "Ford", "Mercedes", "Renault"},
		"construction": {"Caterpillar", "Komatsu", "JCB", "Hitachi", "Bobcat"},
	}
	vmodels := map[string][]string{
		"road":         {"Daily", "Ducato", "Transit", "Sprinter", "Master"},
		"construction": {"320", "PC210", "3CX", "ZX135", "E165"},
	}

	brand := brands[vtype][rand.Intn(len(brands[vtype]))]
	model := vmodels[vtype][rand.Intn(len(vmodels[vtype]))]

	now := time.Now()
	purchase := now.AddDate(0, -rand.Intn(36), 0)

	v := Vehicle{
		VehicleNumber:             fmt.Sprintf("M-%03d", index+1),
		Brand:                     brand,
		Model:                     model,
		RegistrationDate:          purchase.Format(time.RFC3339),
		PurchaseDate:              purchase.Format(time.RFC3339),
		Type:                      vtype,
		MaintenanceIntervalMonths: 12,
	}
	if vtype == "road" {
		v.LicensePlate = fmt.Sprintf("G%c%03d%c%c", 'A'+rand.Intn(26), rand.Intn(1000), 'A'+rand.Intn(26), 'A'+rand.Intn(26))
		v.CurrentUsage = float64(rand.Intn(120000))
		v.MaintenanceFrequency = 15000 // km
		inspection := now.AddDate(0, -rand.Intn(20), 0)
		v.LastInspectionDate = inspection.Format(time.RFC3339)
		v.InspectionIntervalMonths = 24
	} else {
		v.CurrentUsage = float64(rand.Intn(8000))
		v.MaintenanceFrequency = 500 // operating hours
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal vehicle: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/vehicles", bytes.NewBuffer(data))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create vehicle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("vehicle creation failed with status %d: %s", resp.StatusCode, body)
	}

	var created Vehicle
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if created.ID == "" {
		return "", 0, fmt.Errorf("invalid vehicle ID in response")
	}

	log.WithFields(log.Fields{
		"vehicle_id": created.ID,
		"type":       vtype,
		"brand":      brand,
		"model":      model,
	}).Info("Created vehicle")

	return created.ID, v.CurrentUsage, nil
}

// vehicleState tracks a simulated meter.
type vehicleState struct {
	VehicleID string
	Type      string
	Usage     float64
}

// step advances the meter: road vehicles gain km, construction machines
// gain fractions of an operating hour.
func (s *vehicleState) step() {
	if s.Type == "road" {
		s.Usage += 5 + rand.Float64()*45
	} else {
		s.Usage += 0.1 + rand.Float64()*0.4
	}
}

func publishHTTP(apiURL string, s *vehicleState) error {
	payload, _ := json.Marshal(map[string]float64{"value": s.Usage})
	resp, err := authorizedPut(fmt.Sprintf("%s/vehicles/%s/usage", apiURL, s.VehicleID), bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("usage update failed with status: %d", resp.StatusCode)
	}
	return nil
}

func publishMQTT(client mqtt.Client, s *vehicleState) error {
	reading := UsageReading{
		VehicleID: s.VehicleID,
		Value:     s.Usage,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	payload, _ := json.Marshal(reading)
	token := client.Publish(fmt.Sprintf("fleet/%s/usage", s.VehicleID), 1, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt publish: timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	accessKey := os.Getenv("FLEET_ACCESS_KEY")
	numRoad := envInt("NUM_ROAD", 3)
	numConstruction := envInt("NUM_CONSTRUCTION", 2)
	tickSec := envInt("TICK_SECONDS", 10)

	if accessKey != "" {
		if err := login(apiURL, accessKey); err != nil {
			log.WithError(err).Fatal("Login failed")
		}
		log.Info("Logged in")
	}

	// Optional MQTT publishing; falls back to HTTP usage updates
	var mqttClient mqtt.Client
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID("fleet-simulator")
		mqttClient = mqtt.NewClient(opts)
		token := mqttClient.Connect()
		if !token.WaitTimeout(10 * time.Second) {
			log.Fatal("MQTT connect timed out")
		}
		if err := token.Error(); err != nil {
			log.WithError(err).Fatal("MQTT connect failed")
		}
		log.WithField("broker", broker).Info("Publishing usage readings over MQTT")
	}

	var states []*vehicleState
	for i := 0; i < numRoad; i++ {
		id, usage, err := createVehicle(apiURL, "road", i)
		if err != nil {
			log.WithError(err).Fatal("Failed to seed road vehicle")
		}
		states = append(states, &vehicleState{VehicleID: id, Type: "road", Usage: usage})
	}
	for i := 0; i < numConstruction; i++ {
		id, usage, err := createVehicle(apiURL, "construction", numRoad+i)
		if err != nil {
			log.WithError(err).Fatal("Failed to seed construction vehicle")
		}
		states = append(states, &vehicleState{VehicleID: id, Type: "construction", Usage: usage})
	}

	log.WithField("vehicles", len(states)).Info("Fleet seeded, starting usage simulation")

	ticker := time.NewTicker(time.Duration(tickSec) * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		for _, s := range states {
			s.step()
			var err error
			if mqttClient != nil {
				err = publishMQTT(mqttClient, s)
			} else {
				err = publishHTTP(apiURL, s)
			}
			if err != nil {
				log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to publish usage reading")
				continue
			}
			log.WithFields(log.Fields{
				"vehicle_id": s.VehicleID,
				"usage":      fmt.Sprintf("%.1f", s.Usage),
			}).Debug("Published usage reading")
		}
	}
}
