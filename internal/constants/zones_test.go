package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoneForComuna(t *testing.T) {
	tests := []struct {
		name     string
		comuna   string
		expected Zone
		found    bool
	}{
		{name: "exact match", comuna: "maipu", expected: ZonePoniente, found: true},
		{name: "mixed case", comuna: "Las Condes", expected: ZoneOriente, found: true},
		{name: "surrounding whitespace", comuna: "  renca  ", expected: ZoneNorte, found: true},
		{name: "two word comuna", comuna: "Puente Alto", expected: ZoneSur, found: true},
		{name: "unknown comuna", comuna: "valparaiso", found: false},
		{name: "empty", comuna: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zone, ok := ZoneForComuna(tt.comuna)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, zone)
			}
		})
	}
}

func TestZonesCoversAllCodes(t *testing.T) {
	assert.ElementsMatch(t,
		[]Zone{ZoneNorte, ZoneCentro, ZoneOriente, ZonePoniente, ZoneSur},
		Zones(),
	)
}
