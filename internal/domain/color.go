package domain

// Palette is the fixed, ordered set of participant colors.
var Palette = [...]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
	"#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
	"#F8B739", "#52B788", "#E76F51", "#2A9D8F",
}

// ColorFor maps a room-local join index to a palette entry.
// Indexes wrap, so the 13th participant shares the 1st one's color.
func ColorFor(index int) string {
	if index < 0 {
		index = 0
	}
	return Palette[index%len(Palette)]
}
