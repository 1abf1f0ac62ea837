package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateComponent(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"negative", -12.5, false},
		{"max float", math.MaxFloat64, false},
		{"NaN", math.NaN(), true},
		{"positive infinity", math.Inf(1), true},
		{"negative infinity", math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateComponent(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFinite)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(0))
	assert.NoError(t, ValidateDuration(1.5))
	assert.NoError(t, ValidateDuration(math.Inf(1)))
	assert.ErrorIs(t, ValidateDuration(-0.001), ErrNegativeDuration)
	assert.ErrorIs(t, ValidateDuration(math.NaN()), ErrNotFinite)
}

func TestValidateRadius(t *testing.T) {
	tests := []struct {
		name    string
		radius  float64
		minimum float64
		wantErr bool
	}{
		{"equal to minimum", 10, 10, false},
		{"above minimum", 15, 10, false},
		{"below minimum", 9.99, 10, true},
		{"NaN", math.NaN(), 1, true},
		{"infinite", math.Inf(1), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRadius(tt.radius, tt.minimum)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRadius)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOrientation(t *testing.T) {
	assert.NoError(t, ValidateOrientation(0))
	assert.NoError(t, ValidateOrientation(math.Pi))
	assert.NoError(t, ValidateOrientation(2*math.Pi))
	assert.ErrorIs(t, ValidateOrientation(-0.1), ErrInvalidOrientation)
	assert.ErrorIs(t, ValidateOrientation(2*math.Pi+0.1), ErrInvalidOrientation)
	assert.ErrorIs(t, ValidateOrientation(math.NaN()), ErrInvalidOrientation)
}

func TestValidateMass(t *testing.T) {
	assert.NoError(t, ValidateMass(10, 10))
	assert.ErrorIs(t, ValidateMass(9, 10), ErrInvalidMass)
	assert.ErrorIs(t, ValidateMass(math.Inf(1), 10), ErrInvalidMass)
}

func TestValidateDimension(t *testing.T) {
	assert.NoError(t, ValidateDimension(1000))
	assert.NoError(t, ValidateDimension(math.MaxFloat64))
	assert.ErrorIs(t, ValidateDimension(0), ErrInvalidDimension)
	assert.ErrorIs(t, ValidateDimension(-5), ErrInvalidDimension)
	assert.ErrorIs(t, ValidateDimension(math.Inf(1)), ErrInvalidDimension)
	assert.ErrorIs(t, ValidateDimension(math.NaN()), ErrInvalidDimension)
}

func TestValidateEntityName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantErr     bool
		errContains string
	}{
		{name: "simple", input: "enterprise", want: "enterprise"},
		{name: "with hyphen and digits", input: "ship-01", want: "ship-01"},
		{name: "with underscore and dot", input: "alpha_1.b", want: "alpha_1.b"},
		{name: "trimmed", input: "  hunter  ", want: "hunter"},
		{name: "empty", input: "", wantErr: true, errContains: "cannot be empty"},
		{name: "only whitespace", input: "   ", wantErr: true, errContains: "only whitespace"},
		{name: "too long", input: strings.Repeat("a", MaxEntityNameLen+1), wantErr: true, errContains: "max"},
		{name: "inner space", input: "two words", wantErr: true, errContains: "only alphanumeric"},
		{name: "control character", input: "bad\x01name", wantErr: true, errContains: "control characters"},
		{name: "invalid utf8", input: "bad\xffname", wantErr: true, errContains: "UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateEntityName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidName)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
