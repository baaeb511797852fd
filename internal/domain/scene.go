package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// sceneIDRe matches the short Landsat scene identifier convention:
// sensor, WRS-2 path/row, acquisition date, e.g. "LC08_044033_20170716".
var sceneIDRe = regexp.MustCompile(`^(L[TEC]0[45789])_(\d{3})(\d{3})_(\d{8})$`)

// spacecraftIDs maps a sensor prefix to the archive SPACECRAFT_ID value used
// to select per-spacecraft band mappings and thermal constants.
var spacecraftIDs = map[string]string{
	"LT04": "LANDSAT_4",
	"LT05": "LANDSAT_5",
	"LE07": "LANDSAT_7",
	"LC08": "LANDSAT_8",
	"LC09": "LANDSAT_9",
}

// Scene is the parsed form of a Landsat scene identifier.
type Scene struct {
	ID       string
	Sensor   string // e.g. "LC08"
	Path     int
	Row      int
	Acquired time.Time
}

// ParseSceneID parses a short Landsat scene identifier into its components.
func ParseSceneID(id string) (Scene, error) {
	m := sceneIDRe.FindStringSubmatch(id)
	if m == nil {
		return Scene{}, fmt.Errorf("parse scene id %q: not a LXSS_PPPRRR_YYYYMMDD identifier", id)
	}

	path, _ := strconv.Atoi(m[2])
	row, _ := strconv.Atoi(m[3])

	acquired, err := time.Parse("20060102", m[4])
	if err != nil {
		return Scene{}, fmt.Errorf("parse scene id %q: invalid acquisition date: %w", id, err)
	}

	return Scene{
		ID:       id,
		Sensor:   m[1],
		Path:     path,
		Row:      row,
		Acquired: acquired.UTC(),
	}, nil
}

// WRS2Tile returns the ground-track tile string used as the climatology
// lookup key, e.g. "p044r033".
func (s Scene) WRS2Tile() string {
	return fmt.Sprintf("p%03dr%03d", s.Path, s.Row)
}

// Month returns the acquisition month (1-12).
func (s Scene) Month() int {
	return int(s.Acquired.Month())
}

// Year returns the acquisition year.
func (s Scene) Year() int {
	return s.Acquired.Year()
}

// DayOfYear returns the 1-based acquisition day of year, used to filter
// day-of-year indexed climatology collections.
func (s Scene) DayOfYear() int {
	return s.Acquired.YearDay()
}

// SpacecraftID returns the archive SPACECRAFT_ID value for the scene's
// sensor prefix, e.g. "LANDSAT_8" for "LC08".
func (s Scene) SpacecraftID() string {
	return spacecraftIDs[s.Sensor]
}
