package car

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextServiceMileage(t *testing.T) {
	c := &Car{LastServiceMileage: 45000, ServiceIntervalKm: 10000}
	assert.Equal(t, 55000, c.NextServiceMileage())

	c.LastServiceMileage = 55000
	assert.Equal(t, 65000, c.NextServiceMileage())
}
