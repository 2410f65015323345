package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fleetpro/fleet-maintenance/internal/advisor"
	"github.com/fleetpro/fleet-maintenance/internal/models"
)

// MockAdvisor is a mock implementation of Advisor
type MockAdvisor struct {
	mock.Mock
}

func (m *MockAdvisor) Advise(ctx context.Context, vehicles []models.Vehicle, query string) (string, error) {
	args := m.Called(ctx, vehicles, query)
	return args.String(0), args.Error(1)
}

func (m *MockAdvisor) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (advisor.VehicleDetails, error) {
	args := m.Called(ctx, image, mimeType)
	return args.Get(0).(advisor.VehicleDetails), args.Error(1)
}

func TestAdvisorHandler_Advice(t *testing.T) {
	f := newTestFleet(t)
	seedVehicle(t, f)

	mockAdvisor := new(MockAdvisor)
	mockAdvisor.On("Advise", mock.Anything, mock.Anything, "what is overdue?").
		Return("Vehicle M-001 is fine.", nil)

	h := NewAdvisorHandler(mockAdvisor, f)

	req := httptest.NewRequest(http.MethodPost, "/api/advice", jsonBody(t, AdviceRequest{Query: "what is overdue?"}))
	rec := httptest.NewRecorder()
	h.Advice(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp AdviceResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Vehicle M-001 is fine.", resp.Answer)
	mockAdvisor.AssertExpectations(t)
}

func TestAdvisorHandler_Advice_EmptyQuery(t *testing.T) {
	h := NewAdvisorHandler(new(MockAdvisor), newTestFleet(t))

	req := httptest.NewRequest(http.MethodPost, "/api/advice", jsonBody(t, AdviceRequest{}))
	rec := httptest.NewRecorder()
	h.Advice(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvisorHandler_Advice_ServiceFailure(t *testing.T) {
	f := newTestFleet(t)
	seedVehicle(t, f)

	mockAdvisor := new(MockAdvisor)
	mockAdvisor.On("Advise", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("timeout"))

	h := NewAdvisorHandler(mockAdvisor, f)

	req := httptest.NewRequest(http.MethodPost, "/api/advice", jsonBody(t, AdviceRequest{Query: "help"}))
	rec := httptest.NewRecorder()
	h.Advice(rec, req)

	// Advisory failure is recoverable and leaves the fleet untouched
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Len(t, f.Vehicles(), 1)
}

func TestAdvisorHandler_AnalyzeImage(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff}
	encoded := base64.StdEncoding.EncodeToString(image)

	mockAdvisor := new(MockAdvisor)
	mockAdvisor.On("AnalyzeImage", mock.Anything, image, "image/jpeg").
		Return(advisor.VehicleDetails{Brand: "Iveco", Model: "Daily", LicensePlate: "GA123BC"}, nil)

	h := NewAdvisorHandler(mockAdvisor, newTestFleet(t))

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-image",
		jsonBody(t, AnalyzeImageRequest{Image: encoded, MimeType: "image/jpeg"}))
	rec := httptest.NewRecorder()
	h.AnalyzeImage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var details advisor.VehicleDetails
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, "Iveco", details.Brand)
	assert.Equal(t, "GA123BC", details.LicensePlate)
}

func TestAdvisorHandler_AnalyzeImage_DataURL(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	mockAdvisor := new(MockAdvisor)
	mockAdvisor.On("AnalyzeImage", mock.Anything, image, "").
		Return(advisor.VehicleDetails{}, nil)

	h := NewAdvisorHandler(mockAdvisor, newTestFleet(t))

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-image",
		jsonBody(t, AnalyzeImageRequest{Image: dataURL}))
	rec := httptest.NewRecorder()
	h.AnalyzeImage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockAdvisor.AssertExpectations(t)
}

func TestAdvisorHandler_AnalyzeImage_BadInput(t *testing.T) {
	h := NewAdvisorHandler(new(MockAdvisor), newTestFleet(t))

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-image", jsonBody(t, AnalyzeImageRequest{}))
	rec := httptest.NewRecorder()
	h.AnalyzeImage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/analyze-image",
		jsonBody(t, AnalyzeImageRequest{Image: "not base64 !!!"}))
	rec = httptest.NewRecorder()
	h.AnalyzeImage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
