package advisor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fleetpro/fleet-maintenance/internal/models"
)

var (
	ErrNoAPIKey = errors.New("no Gemini API key configured")
	ErrNoAnswer = errors.New("advisory service returned no answer")
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	adviceModel       = "gemini-3-pro-preview"
	visionModel       = "gemini-3-flash-preview"
	defaultTimeout    = 30 * time.Second
	adviceThinkBudget = 32768
)

// VehicleDetails holds the fields extracted from a vehicle photo. Any field
// may be empty; extraction is best effort.
type VehicleDetails struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	LicensePlate string `json:"licensePlate"`
}

// Client calls the Gemini API for fleet advice and photo analysis. Both
// calls are fallible and bounded by the client timeout; the fleet itself is
// never touched by a failure here.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an advisor client from the GEMINI_API_KEY environment
// variable.
func NewClient() (*Client, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return nil, ErrNoAPIKey
	}
	return &Client{
		apiKey:  key,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

// request/response shapes for the generateContent endpoint.

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content candidateContent `json:"content"`
}

type candidateContent struct {
	Parts []candidatePart `json:"parts"`
}

type candidatePart struct {
	Text string `json:"text"`
}

// detailsSchema constrains the vision call to the three fields we extract.
var detailsSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"brand": {"type": "STRING"},
		"model": {"type": "STRING"},
		"licensePlate": {"type": "STRING"}
	}
}`)

// Advise sends the fleet snapshot and a free-text query to the advisory
// model and returns its answer.
func (c *Client) Advise(ctx context.Context, vehicles []models.Vehicle, query string) (string, error) {
	snapshot, err := json.MarshalIndent(vehicles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize fleet snapshot: %w", err)
	}

	prompt := fmt.Sprintf(
		"Fleet data:\n%s\n\nUser request: %s\n\n"+
			"Analyze the state of the vehicles and give strategic advice on maintenance, "+
			"deadlines and operational optimization. Answer professionally.",
		snapshot, query)

	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ThinkingConfig: &thinkingConfig{ThinkingBudget: adviceThinkBudget},
		},
	}
	return c.generate(ctx, adviceModel, req)
}

// AnalyzeImage extracts brand, model and license plate from a vehicle photo
// or maintenance document.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (VehicleDetails, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	req := generateRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(image),
			}},
			{Text: "Analyze this photo of a vehicle or maintenance document. " +
				"Extract brand, model and license plate if visible. Answer strictly in JSON."},
		}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   detailsSchema,
		},
	}

	answer, err := c.generate(ctx, visionModel, req)
	if err != nil {
		return VehicleDetails{}, err
	}

	var details VehicleDetails
	if err := json.Unmarshal([]byte(answer), &details); err != nil {
		return VehicleDetails{}, fmt.Errorf("parse analysis response: %w", err)
	}
	return details, nil
}

// generate posts a generateContent request and returns the first candidate
// text.
func (c *Client) generate(ctx context.Context, model string, reqBody generateRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisory call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read advisory response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisory call failed: status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("decode advisory response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoAnswer
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}
