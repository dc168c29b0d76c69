package entities

import "fmt"

type Location struct {
	Name      string  `json:"name" mapstructure:"name"`
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
}

func (l Location) Validate() error {
	if l.Name == "" {
		return ValidationError{Field: "location.name", Reason: "must not be empty"}
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return ValidationError{Field: "location.latitude", Reason: fmt.Sprintf("%v is outside [-90, 90]", l.Latitude)}
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return ValidationError{Field: "location.longitude", Reason: fmt.Sprintf("%v is outside [-180, 180]", l.Longitude)}
	}
	return nil
}

// DefaultLocations are the six administrative areas of DKI Jakarta the
// dashboard offers, in selector order.
func DefaultLocations() []Location {
	return []Location{
		{Name: "Jakarta Pusat", Latitude: -6.1862, Longitude: 106.8347},
		{Name: "Jakarta Barat", Latitude: -6.1683, Longitude: 106.7589},
		{Name: "Jakarta Timur", Latitude: -6.2250, Longitude: 106.9000},
		{Name: "Jakarta Selatan", Latitude: -6.2667, Longitude: 106.8000},
		{Name: "Jakarta Utara", Latitude: -6.1189, Longitude: 106.9156},
		{Name: "Pulau Seribu", Latitude: -5.7980, Longitude: 106.5070},
	}
}

// Catalog is an ordered, name-indexed set of locations.
type Catalog struct {
	ordered []Location
	byName  map[string]Location
}

func NewCatalog(locations []Location) (*Catalog, error) {
	if len(locations) == 0 {
		return nil, ValidationError{Field: "locations", Reason: "at least one location is required"}
	}

	c := &Catalog{
		ordered: make([]Location, 0, len(locations)),
		byName:  make(map[string]Location, len(locations)),
	}
	for _, l := range locations {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[l.Name]; dup {
			return nil, ValidationError{Field: "locations", Reason: fmt.Sprintf("duplicate location %q", l.Name)}
		}
		c.ordered = append(c.ordered, l)
		c.byName[l.Name] = l
	}
	return c, nil
}

func (c *Catalog) All() []Location {
	out := make([]Location, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) Default() Location { return c.ordered[0] }

func (c *Catalog) Lookup(name string) (Location, error) {
	l, ok := c.byName[name]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, name)
	}
	return l, nil
}
