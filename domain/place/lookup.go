package place

// Unit sources whose bounding box tables live under a different place id.
var unitSourceOverrides = map[string]string{
	"ma_precincts_02_10": "ma_02",
	"ma_towns":           "ma_towns",
	"indiana_precincts":  "indianaprec",
}

// semicolonPlaces have unit IDs that may contain commas.
var semicolonPlaces = map[string]bool{
	"louisiana": true,
}

// LookupID resolves the place id sent to the bounding box service.
func LookupID(placeID, unitsSource string) string {
	if override, ok := unitSourceOverrides[unitsSource]; ok {
		return override
	}
	return placeID
}

// Separator returns the delimiter for the ids query parameter of a lookup id.
func Separator(lookupID string) string {
	if semicolonPlaces[lookupID] {
		return ";"
	}
	return ","
}
