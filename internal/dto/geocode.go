package dto

// ReverseGeocodeQuery binds GET /geocode/reverse.
type ReverseGeocodeQuery struct {
	Lat  string `form:"lat"`
	Lon  string `form:"lon"`
	Zoom string `form:"zoom"`
	Lang string `form:"lang"`
}
