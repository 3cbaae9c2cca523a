package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/shane01526/ElegantPraat/internal/audio"
	"github.com/shane01526/ElegantPraat/internal/dsp"
	"github.com/shane01526/ElegantPraat/internal/textgrid"
)

// Morandi palette carried over from the page styling
var (
	colorBackground = color.RGBA{0xF2, 0xF0, 0xEB, 0xFF} // oat grey
	colorWave       = color.RGBA{0x6E, 0x7C, 0x85, 0xFF} // iron grey
	colorPitch      = color.RGBA{0x8D, 0xA3, 0x99, 0xFF} // sage green
	colorBoundary   = color.RGBA{0xA8, 0x8F, 0x83, 0xFF} // rose brown
	colorText       = color.RGBA{0x5F, 0x6F, 0x7A, 0xFF} // slate blue-grey
	colorLabel      = color.RGBA{0x33, 0x33, 0x33, 0xFF}
	colorWhite      = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

const (
	marginLeft  = 70
	marginRight = 15
	marginTop   = 10
	axisHeight  = 30
)

// Options controls figure geometry
type Options struct {
	Width        int     // total figure width in pixels
	RowHeight    int     // pixels per layout row
	PitchCeiling float64 // Hz, fixed pitch overlay axis
}

// DefaultOptions returns the standard figure geometry
func DefaultOptions() Options {
	return Options{
		Width:        1000,
		RowHeight:    80,
		PitchCeiling: 500.0,
	}
}

// Figure bundles everything one rendering pass needs
type Figure struct {
	Clip        *audio.Clip
	Spectrogram *dsp.Spectrogram    // nil disables the spectrogram panel
	Pitch       *dsp.PitchTrack     // nil disables the pitch overlay
	Annotations *textgrid.TextGrid  // nil disables tier rows
}

// Draw renders the figure: waveform, optional pitch overlay, optional
// spectrogram heatmap and one row per annotation tier, all sharing the
// time axis [0, clip duration].
func Draw(fig Figure, opts Options) (image.Image, error) {
	if fig.Clip == nil {
		return nil, fmt.Errorf("cannot render a figure without audio")
	}
	if opts.Width < 100 || opts.RowHeight < 20 {
		return nil, fmt.Errorf("implausible figure geometry: %dx%d", opts.Width, opts.RowHeight)
	}
	if opts.PitchCeiling <= 0 {
		return nil, fmt.Errorf("pitch ceiling must be positive, got %f", opts.PitchCeiling)
	}

	numTiers := 0
	if fig.Annotations != nil {
		numTiers = len(fig.Annotations.Tiers)
	}
	layout := ComputeLayout(fig.Spectrogram != nil, numTiers)

	width := opts.Width
	height := marginTop + layout.PixelHeight(opts.RowHeight) + axisHeight
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorBackground}, image.Point{}, draw.Src)

	c := &canvas{
		img:      img,
		duration: fig.Clip.Duration(),
		plotLeft: marginLeft,
		plotW:    width - marginLeft - marginRight,
	}

	c.drawWaveform(fig.Clip, bandFor(layout.WaveformTop, layout.WaveformRows, opts.RowHeight))
	if fig.Pitch != nil {
		c.drawPitch(fig.Pitch, opts.PitchCeiling, bandFor(layout.WaveformTop, layout.WaveformRows, opts.RowHeight))
	}

	if fig.Spectrogram != nil {
		b := bandFor(layout.SpectrogramTop, layout.SpectrogramRows, opts.RowHeight)
		c.drawSpectrogram(fig.Spectrogram, b)
	}

	if fig.Annotations != nil {
		for i := range fig.Annotations.Tiers {
			b := bandFor(layout.TierRow(i), 1, opts.RowHeight)
			c.drawTier(&fig.Annotations.Tiers[i], b)
		}
	}

	c.drawTimeAxis(height - axisHeight)

	return img, nil
}

// EncodePNG serializes a rendered figure to PNG bytes
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode figure: %w", err)
	}
	return buf.Bytes(), nil
}

// band is a horizontal strip of the figure in pixel coordinates
type band struct {
	top, bottom int
}

func (b band) height() int {
	return b.bottom - b.top
}

func bandFor(row, rows, rowHeight int) band {
	return band{
		top:    marginTop + row*rowHeight,
		bottom: marginTop + (row+rows)*rowHeight,
	}
}

type canvas struct {
	img      *image.RGBA
	duration float64
	plotLeft int
	plotW    int
}

// xAt maps a time in seconds to a pixel column
func (c *canvas) xAt(t float64) int {
	return c.plotLeft + int(t/c.duration*float64(c.plotW)+0.5)
}

// drawWaveform paints one min-max column per pixel
func (c *canvas) drawWaveform(clip *audio.Clip, b band) {
	samples := clip.Samples()

	absMax := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > absMax {
			absMax = a
		}
	}
	if absMax < 1e-9 {
		absMax = 1e-9
	}

	mid := (b.top + b.bottom) / 2
	// leave a little breathing room at the band edges
	halfH := float64(b.height())/2 - 4

	for px := 0; px < c.plotW; px++ {
		lo := px * len(samples) / c.plotW
		hi := (px + 1) * len(samples) / c.plotW
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(samples) {
			hi = len(samples)
		}

		minV, maxV := samples[lo], samples[lo]
		for _, s := range samples[lo:hi] {
			if s < minV {
				minV = s
			}
			if s > maxV {
				maxV = s
			}
		}

		yTop := mid - int(maxV/absMax*halfH)
		yBot := mid - int(minV/absMax*halfH)
		for y := yTop; y <= yBot; y++ {
			c.img.SetRGBA(c.plotLeft+px, y, colorWave)
		}
	}
}

// drawPitch overlays the pitch track on the waveform band with a fixed
// 0..ceiling axis, skipping unvoiced (NaN) frames.
func (c *canvas) drawPitch(track *dsp.PitchTrack, ceiling float64, b band) {
	yFor := func(hz float64) int {
		frac := hz / ceiling
		if frac > 1 {
			frac = 1
		}
		return b.bottom - 2 - int(frac*float64(b.height()-4))
	}

	prevX, prevY := -1, -1
	for i, t := range track.Times {
		v := track.Values[i]
		if math.IsNaN(v) {
			prevX = -1
			continue
		}

		x := c.xAt(t)
		y := yFor(v)
		c.fillDot(x, y, colorPitch)
		if prevX >= 0 {
			c.drawLine(prevX, prevY, x, y, colorPitch)
		}
		prevX, prevY = x, y
	}
}

// drawSpectrogram paints the dB matrix as a grey heatmap, low
// frequencies at the bottom.
func (c *canvas) drawSpectrogram(sg *dsp.Spectrogram, b band) {
	if sg.NumFrames() == 0 || sg.NumBins() == 0 {
		return
	}

	span := sg.MaxPower - sg.MinPower
	if span <= 0 {
		span = 1
	}

	h := b.height()
	for px := 0; px < c.plotW; px++ {
		t := float64(px) / float64(c.plotW) * c.duration
		frame := frameIndex(sg.Times, t)

		for py := 0; py < h; py++ {
			// py 0 is the top of the band = highest frequency
			binFrac := 1 - float64(py)/float64(h-1)
			bin := int(binFrac * float64(sg.NumBins()-1))

			norm := (sg.Power[frame][bin] - sg.MinPower) / span
			g := uint8(255 * (1 - norm))
			c.img.SetRGBA(c.plotLeft+px, b.top+py, color.RGBA{g, g, g, 0xFF})
		}
	}

	// frequency axis labels at the left edge
	c.text(8, b.top+12, colorText, fmt.Sprintf("%.0f Hz", sg.Freqs[sg.NumBins()-1]))
	c.text(8, b.bottom-4, colorText, "0 Hz")
}

// frameIndex finds the frame whose center time is nearest to t, assuming
// uniformly spaced frames.
func frameIndex(times []float64, t float64) int {
	if len(times) < 2 {
		return 0
	}
	dt := times[1] - times[0]
	i := int((t-times[0])/dt + 0.5)
	if i < 0 {
		i = 0
	}
	if i >= len(times) {
		i = len(times) - 1
	}
	return i
}

// drawTier paints one annotation row: white background, dashed interval
// boundaries with centred labels, or marked points.
func (c *canvas) drawTier(tier *textgrid.Tier, b band) {
	rect := image.Rect(c.plotLeft, b.top, c.plotLeft+c.plotW, b.bottom)
	draw.Draw(c.img, rect, &image.Uniform{colorWhite}, image.Point{}, draw.Src)

	// tier name in the left margin
	name := tier.Name
	if len(name) > 9 {
		name = name[:9]
	}
	c.text(8, (b.top+b.bottom)/2+4, colorText, name)

	midY := (b.top + b.bottom) / 2

	if tier.Kind == textgrid.PointTier {
		for _, pt := range tier.Points {
			if pt.Time < 0 || pt.Time > c.duration {
				continue
			}
			x := c.xAt(pt.Time)
			c.drawVLine(x, b.top, b.bottom, colorBoundary)
			c.textCentered(x, b.top+12, colorLabel, clipLabel(pt.Text, 20))
		}
		return
	}

	for _, iv := range tier.Intervals {
		if iv.XMin > 0 && iv.XMin <= c.duration {
			c.drawDashedVLine(c.xAt(iv.XMin), b.top, b.bottom, colorBoundary)
		}

		mid := (iv.XMin + iv.XMax) / 2
		if iv.Text != "" && mid >= 0 && mid <= c.duration {
			maxChars := int(float64(c.plotW) * (iv.XMax - iv.XMin) / c.duration / 7)
			c.textCentered(c.xAt(mid), midY+4, colorLabel, clipLabel(iv.Text, maxChars))
		}
	}
}

// drawTimeAxis paints tick marks and second labels along the bottom
func (c *canvas) drawTimeAxis(axisTop int) {
	step := tickStep(c.duration)
	for t := 0.0; t <= c.duration+step/2; t += step {
		if t > c.duration {
			t = c.duration
		}
		x := c.xAt(t)
		c.drawVLine(x, axisTop, axisTop+5, colorText)
		c.textCentered(x, axisTop+17, colorText, trimFloat(t))
	}

	c.textCentered(c.plotLeft+c.plotW/2, axisTop+28, colorText, "Time (s)")
}

// tickStep picks a tick interval giving roughly 5 to 10 labels
func tickStep(duration float64) float64 {
	steps := []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}
	for _, s := range steps {
		if duration/s <= 10 {
			return s
		}
	}
	return 600
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 1 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

func clipLabel(s string, maxChars int) string {
	if maxChars < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	if maxChars < 2 {
		return string(runes[:1])
	}
	return string(runes[:maxChars-1]) + "…"
}

func (c *canvas) fillDot(x, y int, col color.RGBA) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.img.SetRGBA(x+dx, y+dy, col)
		}
	}
}

func (c *canvas) drawVLine(x, y0, y1 int, col color.RGBA) {
	for y := y0; y < y1; y++ {
		c.img.SetRGBA(x, y, col)
	}
}

func (c *canvas) drawDashedVLine(x, y0, y1 int, col color.RGBA) {
	for y := y0; y < y1; y++ {
		if (y-y0)%7 < 4 {
			c.img.SetRGBA(x, y, col)
		}
	}
}

// drawLine is a basic Bresenham line
func (c *canvas) drawLine(x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		c.img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (c *canvas) text(x, y int, col color.RGBA, s string) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  &image.Uniform{col},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (c *canvas) textCentered(x, y int, col color.RGBA, s string) {
	if s == "" {
		return
	}
	d := font.Drawer{
		Dst:  c.img,
		Src:  &image.Uniform{col},
		Face: basicfont.Face7x13,
	}
	w := d.MeasureString(s)
	d.Dot = fixed.P(x-w.Round()/2, y)
	d.DrawString(s)
}
