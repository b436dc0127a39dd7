package tonecore

// Bar colours in BGRA order, one per PSG channel.
var barColors = [channels][4]byte{
	{0x40, 0x40, 0xff, 0xff}, // tone 0: red
	{0x40, 0xff, 0x40, 0xff}, // tone 1: green
	{0xff, 0x80, 0x40, 0xff}, // tone 2: blue
	{0xc0, 0xc0, 0xc0, 0xff}, // noise: grey
}

var background = [4]byte{0x00, 0x00, 0x00, 0xff}

// renderBars draws one vertical bar per channel whose height follows the
// channel's audible volume.
func renderBars(fb []byte, width, height int, levels [channels]int) {
	colWidth := width / channels
	for y := 0; y < height; y++ {
		row := fb[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; x++ {
			px := row[x*4 : x*4+4]
			ch := min(x/colWidth, channels-1)
			filled := height - levels[ch]*height/silent
			if x%colWidth != 0 && y >= filled {
				copy(px, barColors[ch][:])
			} else {
				copy(px, background[:])
			}
		}
	}
}
