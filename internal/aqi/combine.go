package aqi

import "fmt"

// Combine derives the overall index as the maximum of the present sub-indices.
// It fails with ErrInvalidInput when every sub-index is absent.
func Combine(s SubIndices) (int, error) {
	overall := -1
	for _, v := range s.Values() {
		if v != nil && *v > overall {
			overall = *v
		}
	}
	if overall < 0 {
		return 0, fmt.Errorf("no sub-index to combine: %w", ErrInvalidInput)
	}
	return overall, nil
}

// Compute converts every concentration of r and combines the results.
func Compute(r *Reading) (SubIndices, int, error) {
	var subs SubIndices
	for _, p := range Pollutants {
		v, err := Convert(p, r.Concentration(p))
		if err != nil {
			return SubIndices{}, 0, err
		}
		subs.set(p, v)
	}

	overall, err := Combine(subs)
	if err != nil {
		return subs, 0, err
	}
	return subs, overall, nil
}

// Category is the health band of an overall index value.
type Category string

const (
	CategoryGood               Category = "Good"
	CategoryModerate           Category = "Moderate"
	CategoryUnhealthySensitive Category = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy          Category = "Unhealthy"
	CategoryVeryUnhealthy      Category = "Very Unhealthy"
	CategoryHazardous          Category = "Hazardous"
)

// CategoryOf returns the health band for an overall index value.
func CategoryOf(aqi int) Category {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategoryModerate
	case aqi <= 150:
		return CategoryUnhealthySensitive
	case aqi <= 200:
		return CategoryUnhealthy
	case aqi <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}
