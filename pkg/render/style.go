package render

// Style holds the presentation constants of the drawing.
//
// A zero field takes its [DefaultStyle] value. Colors are switched off
// with "none". Widths and the radius are switched off with any negative
// value, which draws as 0. Offsets have no off value; a tiny offset such
// as 0.001 stands in for 0.
type Style struct {
	LinkStroke      string  `toml:"link_stroke"`
	LinkWidth       float64 `toml:"link_width"`
	NodeFill        string  `toml:"node_fill"`
	NodeRadius      float64 `toml:"node_radius"`
	LabelOffset     float64 `toml:"label_offset"`
	LabelFontSize   string  `toml:"label_font_size"`
	LabelFill       string  `toml:"label_fill"`
	LabelOutline    string  `toml:"label_outline"`
	LabelOutlineW   float64 `toml:"label_outline_width"`
	PopupFontSize   string  `toml:"popup_font_size"`
	PopupOffsetX    float64 `toml:"popup_offset_x"`
	PopupOffsetY    float64 `toml:"popup_offset_y"`
	PopupFill       string  `toml:"popup_fill"`
	PopupStroke     string  `toml:"popup_stroke"`
	NodeStrokeWidth float64 `toml:"node_stroke_width"`
}

// DefaultStyle returns the standard look: purple markers, grey links and
// white labels with a grey outline.
func DefaultStyle() Style {
	return Style{
		LinkStroke:      "#646464",
		LinkWidth:       5,
		NodeFill:        "#c300ff",
		NodeRadius:      50,
		LabelOffset:     75,
		LabelFontSize:   "2rem",
		LabelFill:       "white",
		LabelOutline:    "#646464",
		LabelOutlineW:   2,
		PopupFontSize:   "3rem",
		PopupOffsetX:    75,
		PopupOffsetY:    60,
		PopupFill:       "white",
		PopupStroke:     "#646464",
		NodeStrokeWidth: 1,
	}
}

// WithDefaults fills zero fields from DefaultStyle and turns negative sizes
// into 0.
func (s Style) WithDefaults() Style {
	d := DefaultStyle()
	str := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	num := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	size := func(v *float64, def float64) {
		num(v, def)
		if *v < 0 {
			*v = 0
		}
	}
	str(&s.LinkStroke, d.LinkStroke)
	size(&s.LinkWidth, d.LinkWidth)
	str(&s.NodeFill, d.NodeFill)
	size(&s.NodeRadius, d.NodeRadius)
	num(&s.LabelOffset, d.LabelOffset)
	str(&s.LabelFontSize, d.LabelFontSize)
	str(&s.LabelFill, d.LabelFill)
	str(&s.LabelOutline, d.LabelOutline)
	size(&s.LabelOutlineW, d.LabelOutlineW)
	str(&s.PopupFontSize, d.PopupFontSize)
	num(&s.PopupOffsetX, d.PopupOffsetX)
	num(&s.PopupOffsetY, d.PopupOffsetY)
	str(&s.PopupFill, d.PopupFill)
	str(&s.PopupStroke, d.PopupStroke)
	size(&s.NodeStrokeWidth, d.NodeStrokeWidth)
	return s
}
