package barcode

// Bar is one contiguous dark run, in pixels.
type Bar struct {
	X     int  `json:"x"`
	Width int  `json:"width"`
	Guard bool `json:"guard"`
}

// Label places one human-readable digit, X is the horizontal center.
type Label struct {
	Digit string  `json:"digit"`
	X     float64 `json:"x"`
}

// Geometry is everything a drawing adapter needs to paint a Pattern.
type Geometry struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	ModuleWidth    int     `json:"module_width"`
	BarcodeWidth   int     `json:"barcode_width"`
	OffsetX        int     `json:"offset_x"`
	DataBarHeight  int     `json:"data_bar_height"`
	GuardBarHeight int     `json:"guard_bar_height"`
	TextBand       int     `json:"text_band"`
	Bars           []Bar   `json:"bars"`
	Labels         []Label `json:"labels"`
}

// DefaultQuietZone is the minimum quiet zone, in modules, on each side.
const DefaultQuietZone = 10

// Layout fits p into a width x height box.
//
// moduleWidth = floor((width - 2*quietZone) / 95), at least 1. The symbol is
// centered horizontally. Guard bars reach into the text band.
func Layout(p Pattern, width, height, quietZone int) Geometry {
	if quietZone < 0 {
		quietZone = DefaultQuietZone
	}

	moduleWidth := (width - 2*quietZone) / Modules
	if moduleWidth < 1 {
		moduleWidth = 1
	}
	barcodeWidth := moduleWidth * Modules
	offsetX := (width - barcodeWidth) / 2
	if offsetX < 0 {
		offsetX = 0
	}

	textBand := height / 6
	if textBand < 12 {
		textBand = 12
	}
	dataHeight := height - textBand
	if dataHeight < 1 {
		dataHeight = 1
	}
	guardHeight := dataHeight + textBand/2
	if guardHeight > height {
		guardHeight = height
	}
	if guardHeight < dataHeight {
		guardHeight = dataHeight
	}

	g := Geometry{
		Width:          width,
		Height:         height,
		ModuleWidth:    moduleWidth,
		BarcodeWidth:   barcodeWidth,
		OffsetX:        offsetX,
		DataBarHeight:  dataHeight,
		GuardBarHeight: guardHeight,
		TextBand:       textBand,
		Bars:           bars(p.Bits, offsetX, moduleWidth),
		Labels:         labels(p.Code, offsetX, moduleWidth),
	}
	return g
}

func bars(bits string, offsetX, moduleWidth int) []Bar {
	out := make([]Bar, 0, 30)
	for i := 0; i < len(bits); {
		if bits[i] != '1' {
			i++
			continue
		}
		guard := isGuardModule(i)
		start := i
		for i < len(bits) && bits[i] == '1' && isGuardModule(i) == guard {
			i++
		}
		out = append(out, Bar{
			X:     offsetX + start*moduleWidth,
			Width: (i - start) * moduleWidth,
			Guard: guard,
		})
	}
	return out
}

func labels(code string, offsetX, moduleWidth int) []Label {
	if len(code) != Length {
		return nil
	}
	mw := float64(moduleWidth)
	left := float64(offsetX)

	first := left - 4*mw
	if first < mw {
		first = mw
	}

	out := make([]Label, 0, Length)
	out = append(out, Label{Digit: code[:1], X: first})
	for i := 1; i <= 6; i++ {
		start := 3 + 7*(i-1)
		out = append(out, Label{Digit: code[i : i+1], X: left + (float64(start)+3.5)*mw})
	}
	for i := 7; i < Length; i++ {
		start := 50 + 7*(i-7)
		out = append(out, Label{Digit: code[i : i+1], X: left + (float64(start)+3.5)*mw})
	}
	return out
}
