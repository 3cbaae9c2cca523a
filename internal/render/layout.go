package render

// Layout describes the vertical arrangement of the figure as a grid of
// equal-height rows: the waveform always occupies two rows, the
// spectrogram adds two more when enabled, and each annotation tier adds
// one.
type Layout struct {
	TotalRows int

	WaveformTop  int
	WaveformRows int

	SpectrogramTop  int // -1 when the spectrogram is disabled
	SpectrogramRows int

	TiersTop int // -1 when there are no tiers
	NumTiers int
}

// ComputeLayout builds the row layout for the requested panels
func ComputeLayout(showSpectrogram bool, numTiers int) Layout {
	if numTiers < 0 {
		numTiers = 0
	}

	l := Layout{
		WaveformTop:    0,
		WaveformRows:   2,
		SpectrogramTop: -1,
		TiersTop:       -1,
		NumTiers:       numTiers,
	}

	next := l.WaveformRows
	if showSpectrogram {
		l.SpectrogramTop = next
		l.SpectrogramRows = 2
		next += 2
	}
	if numTiers > 0 {
		l.TiersTop = next
		next += numTiers
	}
	l.TotalRows = next

	return l
}

// TierRow returns the grid row of tier i (zero-based)
func (l Layout) TierRow(i int) int {
	return l.TiersTop + i
}

// PixelHeight returns the total plot height for a given row height,
// excluding margins and the time axis strip.
func (l Layout) PixelHeight(rowHeight int) int {
	return l.TotalRows * rowHeight
}
