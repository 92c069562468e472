// Package mains resolves the electrical mains frequency used to place hum
// notches ahead of word detection.
package mains

import (
	"fmt"
	"strconv"
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// Mains frequencies in Hz.
const (
	Hz50 = 50.0
	Hz60 = 60.0
)

// Setting values accepted by Resolve besides an explicit number.
const (
	SettingAuto = "auto"
	SettingOff  = "off"
)

// Resolve turns a configured hum setting into a frequency. "auto" looks at the
// local timezone, "off" (or empty) yields 0, anything else must be 50 or 60.
func Resolve(setting string) (float64, error) {
	switch s := strings.ToLower(strings.TrimSpace(setting)); s {
	case "", SettingOff:
		return 0, nil
	case SettingAuto:
		return Local(), nil
	default:
		hz, err := strconv.ParseFloat(strings.TrimSuffix(s, "hz"), 64)
		if err != nil || (hz != Hz50 && hz != Hz60) {
			return 0, fmt.Errorf("invalid mains setting %q: want auto, off, 50 or 60", setting)
		}
		return hz, nil
	}
}

// Local returns the mains frequency for the runtime timezone, or 50Hz when it
// cannot be determined.
func Local() float64 {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Hz50
	}
	return ForTimezone(timezone)
}

// ForTimezone returns the mains frequency for an IANA timezone name.
func ForTimezone(timezone string) float64 {
	// No country for these
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return Hz50
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return Hz50
	}

	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return Hz50
	}

	return ForCountry(country)
}

// ForCountry returns the mains frequency for a country name. Japan is split by
// region; the 50Hz east is used.
func ForCountry(country string) float64 {
	if hz60Countries[country] {
		return Hz60
	}
	return Hz50
}

// Harmonics lists the fundamental and its first n-1 harmonics that sit below
// the Nyquist frequency for sampleRate.
func Harmonics(fundamental float64, n, sampleRate int) []float64 {
	if fundamental <= 0 || n <= 0 || sampleRate <= 0 {
		return nil
	}
	nyquist := float64(sampleRate) / 2
	var out []float64
	for k := 1; k <= n; k++ {
		f := fundamental * float64(k)
		if f >= nyquist {
			break
		}
		out = append(out, f)
	}
	return out
}

// hz60Countries lists countries using 60Hz mains power.
// All other countries use 50Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// North America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,

	// Central America
	"Belize":      true,
	"Costa Rica":  true,
	"El Salvador": true,
	"Guatemala":   true,
	"Honduras":    true,
	"Nicaragua":   true,
	"Panama":      true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America (partial, most use 50Hz)
	"Brazil":    true, // Note: Brazil has both 50Hz and 60Hz regions; 60Hz predominant
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia (partial)
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
