package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperational(t *testing.T) {
	assert.True(t, Place{BusinessStatus: BusinessStatusOperational}.Operational())
	// Providers omit the field for most open businesses.
	assert.True(t, Place{}.Operational())
	assert.False(t, Place{BusinessStatus: BusinessStatusClosedTemporarily}.Operational())
	assert.False(t, Place{BusinessStatus: BusinessStatusClosedPermanently}.Operational())
}

func TestPrimaryCategory(t *testing.T) {
	assert.Equal(t, "restaurant", Place{Types: []string{"restaurant", "point_of_interest"}}.PrimaryCategory())
	assert.Equal(t, "", Place{}.PrimaryCategory())
}

func TestValidStatus(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("Archived"))
	assert.False(t, ValidStatus(""))
}
