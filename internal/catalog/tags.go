// Package catalog holds the tag taxonomy shared by client and server. Tag
// ids travel on the wire as byte-list elements, so the taxonomy must stay
// below 256 entries.
package catalog

// Tag is one taxonomy entry. IDs are 1-based and stable; the store seeds its
// tags table from this list.
type Tag struct {
	ID   int
	Name string
}

// Tags is the closed taxonomy, clothing first, then consumer electronics.
var Tags = []Tag{
	{1, "clothing_accessories"},
	{2, "footwear"},
	{3, "accessories_and_jewelry"},
	{4, "handbags_and_luggage"},
	{5, "mens_clothing"},
	{6, "womens_clothing"},
	{7, "audio_equipment"},
	{8, "camera_equipment"},
	{9, "car_and_gps"},
	{10, "computer_accessories"},
	{11, "desktop_computers_and_monitors"},
	{12, "laptops_and_notebooks"},
	{13, "smartphones"},
	{14, "tablets_and_ereaders"},
	{15, "televisions"},
	{16, "video_games_and_consoles"},
	{17, "wearables"},
}

// Valid reports whether id names a taxonomy entry.
func Valid(id int) bool { return id >= 1 && id <= len(Tags) }

// Name returns the tag name for id, or "" for an unknown id.
func Name(id int) string {
	if !Valid(id) {
		return ""
	}
	return Tags[id-1].Name
}
