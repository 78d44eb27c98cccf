package model

import "strings"

// promoImages maps provider category tags to bundled promotional mockup
// images shown alongside a lead when pitching a website.
var promoImages = map[string]string{
	"restaurant":     "/promos/restaurant.jpg",
	"cafe":           "/promos/cafe.jpg",
	"bakery":         "/promos/cafe.jpg",
	"lodging":        "/promos/hotel.jpg",
	"hotel":          "/promos/hotel.jpg",
	"beauty_salon":   "/promos/salon.jpg",
	"hair_care":      "/promos/salon.jpg",
	"gym":            "/promos/gym.jpg",
	"car_repair":     "/promos/garage.jpg",
	"store":          "/promos/store.jpg",
	"clothing_store": "/promos/store.jpg",
}

const defaultPromoImage = "/promos/default.jpg"

// PromoImageForCategory returns the promotional image reference for a
// category, falling back to a generic image for unrecognized categories.
// Both raw provider tags ("beauty_salon") and display labels ("Beauty
// Salon") resolve to the same image.
func PromoImageForCategory(category string) string {
	key := strings.ReplaceAll(strings.ToLower(category), " ", "_")
	if img, ok := promoImages[key]; ok {
		return img
	}
	return defaultPromoImage
}
