package places

import (
	"fmt"
	"net/url"
	"strings"
)

// cleanCityName strips the country suffix from "City, CC" style input so the
// generated search queries match what booking sites expect.
func cleanCityName(city string) string {
	if idx := strings.Index(city, ","); idx >= 0 {
		city = city[:idx]
	}
	return strings.TrimSpace(city)
}

// hotelBookingLinks builds deep links for a single hotel. Booking.com and
// Agoda are always present; MakeMyTrip and Goibibo are added for destinations
// inside the configured region. Links always include the city name so the
// target sites land on a search result instead of a login prompt.
func hotelBookingLinks(hotelName, city string, lat, lon float64, regional bool) map[string]string {
	cityClean := cleanCityName(city)
	h := url.QueryEscape(hotelName)
	c := url.QueryEscape(cityClean)
	hc := url.QueryEscape(hotelName + " " + cityClean)

	links := map[string]string{
		"booking_com": fmt.Sprintf(
			"https://www.booking.com/search.html?ss=%s&ssne=%s&ssne_untouched=%s&latitude=%f&longitude=%f",
			hc, c, c, lat, lon),
		"agoda": fmt.Sprintf("https://www.agoda.com/search?city=%s&q=%s", c, h),
	}
	if regional {
		links["makemytrip"] = fmt.Sprintf("https://www.makemytrip.com/hotels/search?city=%s&hotelName=%s", c, h)
		links["goibibo"] = fmt.Sprintf("https://www.goibibo.com/hotels/find-hotels-in-%s/?q=%s", c, h)
	}
	return links
}

// cityBookingLinks builds the city-level equivalents, generated once per
// destination.
func cityBookingLinks(city string, regional bool) map[string]string {
	c := url.QueryEscape(cleanCityName(city))

	links := map[string]string{
		"booking_com": fmt.Sprintf("https://www.booking.com/search.html?ss=%s", c),
		"agoda":       fmt.Sprintf("https://www.agoda.com/search?city=%s", c),
	}
	if regional {
		links["makemytrip"] = fmt.Sprintf("https://www.makemytrip.com/hotels/search?city=%s", c)
		links["goibibo"] = fmt.Sprintf("https://www.goibibo.com/hotels/find-hotels-in-%s/", c)
	}
	return links
}
