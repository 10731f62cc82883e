package images

import (
	"fmt"
	"math"
	"strings"
)

// AspectRatio is an aspect ratio by name (e.g., "16:9").
type AspectRatio string

const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio54  AspectRatio = "5:4"
	AspectRatio32  AspectRatio = "3:2"
)

// Resolution is a named frame size usable as a resize target.
type Resolution struct {
	// Alias is the short name accepted by LookupResolution, e.g. "720p".
	Alias       string      `json:"alias"        yaml:"alias"`
	Name        string      `json:"name"         yaml:"name"`
	AspectRatio AspectRatio `json:"aspect_ratio" yaml:"aspect_ratio"`
	Width       int         `json:"width"        yaml:"width"`
	Height      int         `json:"height"       yaml:"height"`
}

// MegaPixels returns the pixel count in millions, rounded to two decimals
// (2.07 for 1080p).
func (r Resolution) MegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	mp := float64(r.Width*r.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.MegaPixels())
}

// resolutions is ordered by pixel count.
var resolutions = []Resolution{
	{Alias: "360p", Name: "nHD", AspectRatio: AspectRatio169, Width: 640, Height: 360},
	{Alias: "vga", Name: "VGA", AspectRatio: AspectRatio43, Width: 640, Height: 480},
	{Alias: "480p", Name: "FWVGA", AspectRatio: AspectRatio169, Width: 854, Height: 480},
	{Alias: "540p", Name: "qHD 540p", AspectRatio: AspectRatio169, Width: 960, Height: 540},
	{Alias: "720p", Name: "HD 720p", AspectRatio: AspectRatio169, Width: 1280, Height: 720},
	{Alias: "wxga", Name: "WXGA", AspectRatio: AspectRatio169, Width: 1366, Height: 768},
	{Alias: "1mp", Name: "1MP (5:4)", AspectRatio: AspectRatio54, Width: 1280, Height: 1024},
	{Alias: "900p", Name: "HD+", AspectRatio: AspectRatio169, Width: 1600, Height: 900},
	{Alias: "2mp", Name: "2MP (4:3)", AspectRatio: AspectRatio43, Width: 1600, Height: 1200},
	{Alias: "1080p", Name: "Full HD 1080p", AspectRatio: AspectRatio169, Width: 1920, Height: 1080},
	{Alias: "3mp", Name: "3MP (4:3)", AspectRatio: AspectRatio43, Width: 2048, Height: 1536},
	{Alias: "1440p", Name: "QHD 1440p", AspectRatio: AspectRatio169, Width: 2560, Height: 1440},
	{Alias: "4mp", Name: "4MP (16:9)", AspectRatio: AspectRatio169, Width: 2688, Height: 1520},
	{Alias: "6mp", Name: "6MP (3:2)", AspectRatio: AspectRatio32, Width: 3072, Height: 2048},
	{Alias: "4k", Name: "4K UHD", AspectRatio: AspectRatio169, Width: 3840, Height: 2160},
	{Alias: "12mp", Name: "12MP (4:3)", AspectRatio: AspectRatio43, Width: 4000, Height: 3000},
	{Alias: "5k", Name: "5K", AspectRatio: AspectRatio169, Width: 5120, Height: 2880},
	{Alias: "8k", Name: "8K UHD", AspectRatio: AspectRatio169, Width: 7680, Height: 4320},
}

// Resolutions returns every known resolution, smallest first.
func Resolutions() []Resolution {
	return append([]Resolution(nil), resolutions...)
}

// LookupResolution finds a resolution by alias, case-insensitively.
func LookupResolution(alias string) (Resolution, bool) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	for _, r := range resolutions {
		if r.Alias == alias {
			return r, true
		}
	}
	return Resolution{}, false
}

// HighestResolutionWithin returns the largest resolution that fits inside
// width x height.
//
// Arguments:
//   - width: The maximum width.
//   - height: The maximum height.
//
// Returns:
//   - Resolution: The largest fitting resolution.
//   - bool: False if none fits.
func HighestResolutionWithin(width, height int) (Resolution, bool) {
	for i := len(resolutions) - 1; i >= 0; i-- {
		if resolutions[i].Width <= width && resolutions[i].Height <= height {
			return resolutions[i], true
		}
	}
	return Resolution{}, false
}
