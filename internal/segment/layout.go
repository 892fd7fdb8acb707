package segment

// Layout holds the proportional geometry used by the segmenter. Every
// fraction is relative to the full image width or height as noted.
type Layout struct {
	// AnalysisWidth is the width of the downsampled copy used for anchor
	// detection. Images narrower than this are analysed at native size.
	AnalysisWidth int
	// IconLeft and IconRight bound the icon window as fractions of width.
	IconLeft  float64
	IconRight float64
	// SearchTop and SearchBottom bound anchor rows as fractions of height.
	SearchTop    float64
	SearchBottom float64
	// TopBias scales row energy by 1 + TopBias*(1 - y/height).
	TopBias float64
	// BandOffset and BandHeight are fractions of width.
	BandOffset float64
	BandHeight float64
	// ColumnInset is trimmed from both sides of each column, as a fraction
	// of the column width.
	ColumnInset float64
	Slots       int
}

// DefaultLayout returns the geometry tuned for full-width board screenshots.
func DefaultLayout() Layout {
	return Layout{
		AnalysisWidth: 320,
		IconLeft:      0.18,
		IconRight:     0.82,
		SearchTop:     0.08,
		SearchBottom:  0.92,
		TopBias:       0.15,
		BandOffset:    0.004,
		BandHeight:    0.075,
		ColumnInset:   0.06,
		Slots:         10,
	}
}

func (l Layout) normalized() Layout {
	d := DefaultLayout()
	if l.AnalysisWidth <= 0 {
		l.AnalysisWidth = d.AnalysisWidth
	}
	if l.IconLeft < 0 || l.IconRight > 1 || l.IconLeft >= l.IconRight {
		l.IconLeft, l.IconRight = d.IconLeft, d.IconRight
	}
	if l.SearchTop < 0 || l.SearchBottom > 1 || l.SearchTop >= l.SearchBottom {
		l.SearchTop, l.SearchBottom = d.SearchTop, d.SearchBottom
	}
	if l.TopBias < 0 {
		l.TopBias = d.TopBias
	}
	if l.BandOffset < 0 {
		l.BandOffset = d.BandOffset
	}
	if l.BandHeight <= 0 {
		l.BandHeight = d.BandHeight
	}
	if l.ColumnInset < 0 || l.ColumnInset >= 0.5 {
		l.ColumnInset = d.ColumnInset
	}
	if l.Slots <= 0 {
		l.Slots = d.Slots
	}
	return l
}
