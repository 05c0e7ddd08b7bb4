package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/kelvins/geocoder"
)

func TestStaticResolver(t *testing.T) {
	c, err := StaticResolver{}.Resolve(context.Background(), "부산")
	if err != nil {
		t.Fatal(err)
	}
	if c.Lat != 35.1796 || c.Lng != 129.0756 {
		t.Errorf("부산 = %+v", c)
	}

	if _, err := (StaticResolver{}).Resolve(context.Background(), "제주"); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("error = %v, want ErrUnknownRegion", err)
	}
}

func TestGeocodingResolver_Caches(t *testing.T) {
	calls := 0
	r := NewGeocodingResolver("key")
	r.geocode = func(addr geocoder.Address) (geocoder.Location, error) {
		calls++
		if addr.City != "제주" || addr.Country != "South Korea" {
			t.Errorf("unexpected address %+v", addr)
		}
		return geocoder.Location{Latitude: 33.4996, Longitude: 126.5312}, nil
	}

	for i := 0; i < 2; i++ {
		c, err := r.Resolve(context.Background(), "제주")
		if err != nil {
			t.Fatal(err)
		}
		if c.Lat != 33.4996 {
			t.Errorf("Lat = %v", c.Lat)
		}
	}
	if calls != 1 {
		t.Errorf("geocode calls = %d, want 1", calls)
	}
}

func TestChainResolver(t *testing.T) {
	t.Run("static only", func(t *testing.T) {
		r := NewResolver("", nil)
		if _, err := r.Resolve(context.Background(), "서울"); err != nil {
			t.Errorf("서울: %v", err)
		}
		if _, err := r.Resolve(context.Background(), "제주"); !errors.Is(err, ErrUnknownRegion) {
			t.Errorf("제주 error = %v, want ErrUnknownRegion", err)
		}
	})

	t.Run("falls back to geocoding", func(t *testing.T) {
		g := NewGeocodingResolver("key")
		g.geocode = func(geocoder.Address) (geocoder.Location, error) {
			return geocoder.Location{Latitude: 1, Longitude: 2}, nil
		}
		r := &ChainResolver{resolvers: []Resolver{StaticResolver{}, g}, logger: NewResolver("", nil).logger}

		c, err := r.Resolve(context.Background(), "제주")
		if err != nil {
			t.Fatal(err)
		}
		if c != (Coordinates{Lat: 1, Lng: 2}) {
			t.Errorf("coords = %+v", c)
		}
	})
}

func TestPM10Color(t *testing.T) {
	tests := []struct {
		pm10 float64
		want string
	}{
		{0, "#00ff88"},
		{30, "#00ff88"},
		{30.5, "#ffff00"},
		{80, "#ffff00"},
		{150, "#ff9900"},
		{151, "#ff0000"},
	}
	for _, tt := range tests {
		if got := PM10Color(tt.pm10); got != tt.want {
			t.Errorf("PM10Color(%v) = %s, want %s", tt.pm10, got, tt.want)
		}
	}
}
