package constants

import "strings"

// Zone is the coarse geographic grouping derived from a comuna, used for
// routing and filtering.
type Zone string

const (
	ZoneNorte    Zone = "norte"
	ZoneCentro   Zone = "centro"
	ZoneOriente  Zone = "oriente"
	ZonePoniente Zone = "poniente"
	ZoneSur      Zone = "sur"
)

// comunaZones maps normalized comuna names to their zone. An unrecognized
// comuna is a hard validation error on import and manual entry.
var comunaZones = map[string]Zone{
	"huechuraba":          ZoneNorte,
	"independencia":       ZoneNorte,
	"recoleta":            ZoneNorte,
	"conchali":            ZoneNorte,
	"quilicura":           ZoneNorte,
	"renca":               ZoneNorte,
	"santiago":            ZoneCentro,
	"estacion central":    ZoneCentro,
	"quinta normal":       ZoneCentro,
	"san miguel":          ZoneCentro,
	"san joaquin":         ZoneCentro,
	"pedro aguirre cerda": ZoneCentro,
	"providencia":         ZoneOriente,
	"las condes":          ZoneOriente,
	"vitacura":            ZoneOriente,
	"lo barnechea":        ZoneOriente,
	"la reina":            ZoneOriente,
	"nunoa":               ZoneOriente,
	"penalolen":           ZoneOriente,
	"macul":               ZoneOriente,
	"maipu":               ZonePoniente,
	"pudahuel":            ZonePoniente,
	"cerro navia":         ZonePoniente,
	"lo prado":            ZonePoniente,
	"cerrillos":           ZonePoniente,
	"la florida":          ZoneSur,
	"puente alto":         ZoneSur,
	"la granja":           ZoneSur,
	"la pintana":          ZoneSur,
	"san bernardo":        ZoneSur,
	"el bosque":           ZoneSur,
	"la cisterna":         ZoneSur,
	"san ramon":           ZoneSur,
	"lo espejo":           ZoneSur,
}

// ZoneForComuna resolves a comuna name to its zone. Matching is
// case-insensitive and tolerant of surrounding whitespace.
func ZoneForComuna(comuna string) (Zone, bool) {
	zone, ok := comunaZones[strings.ToLower(strings.TrimSpace(comuna))]
	return zone, ok
}

// Zones returns every known zone code
func Zones() []Zone {
	return []Zone{ZoneNorte, ZoneCentro, ZoneOriente, ZonePoniente, ZoneSur}
}
