package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coordinatePayload struct {
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
}

func TestValidateStructCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		payload coordinatePayload
		wantErr bool
	}{
		{"valid", coordinatePayload{Latitude: 43.65, Longitude: -79.38}, false},
		{"zero values are valid coordinates", coordinatePayload{}, false},
		{"latitude too large", coordinatePayload{Latitude: 95, Longitude: 0}, true},
		{"longitude too small", coordinatePayload{Latitude: 0, Longitude: -181}, true},
		{"boundary values", coordinatePayload{Latitude: -90, Longitude: 180}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	require.NoError(t, ValidateCoordinates(45.5017, -73.5673))
	assert.Error(t, ValidateCoordinates(90.1, 0))
	assert.Error(t, ValidateCoordinates(0, 180.1))
}
