package matchstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	venueIDKeys   = []string{"id", "venue_id", "venueId"}
	venueNameKeys = []string{"name", "venue_name", "venueName"}
)

// NormalizeVenue converts the venue shapes found in stored and incoming
// match data into a Venue.
func NormalizeVenue(v any) (Venue, error) {
	switch val := v.(type) {
	case nil:
		return Venue{}, nil
	case Venue:
		return Venue{ID: cleanText(val.ID), Name: cleanText(val.Name)}, nil
	case *Venue:
		if val == nil {
			return Venue{}, nil
		}
		return NormalizeVenue(*val)
	case string:
		return Venue{Name: cleanText(val)}, nil
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return venueFromMap(m)
	case map[string]any:
		return venueFromMap(val)
	default:
		return Venue{}, fmt.Errorf("unsupported venue shape %T", v)
	}
}

func venueFromMap(m map[string]any) (Venue, error) {
	var out Venue
	for _, k := range venueIDKeys {
		if s, ok := scalarString(m[k]); ok && s != "" {
			out.ID = s
			break
		}
	}
	for _, k := range venueNameKeys {
		if s, ok := scalarString(m[k]); ok && s != "" {
			out.Name = s
			break
		}
	}
	return out, nil
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return cleanText(val), true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	}
	return "", false
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
