package savedsync

const (
	// ArrowThreshold is the slack, in pixels, before an arrow is shown.
	ArrowThreshold = 10.0

	// ScrollFraction of the visible width moved per arrow click.
	ScrollFraction = 0.95
)

// Geometry is the scroll container's state as reported by the client.
type Geometry struct {
	ScrollLeft  float64 `json:"scrollLeft"`
	ScrollWidth float64 `json:"scrollWidth"`
	ClientWidth float64 `json:"clientWidth"`
}

// MaxScrollLeft is the largest reachable scroll offset.
func (g Geometry) MaxScrollLeft() float64 {
	if m := g.ScrollWidth - g.ClientWidth; m > 0 {
		return m
	}
	return 0
}

// ArrowVisibility derives which carousel arrows to show.
func ArrowVisibility(g Geometry) (left, right bool) {
	maxScroll := g.ScrollWidth - g.ClientWidth
	return g.ScrollLeft > ArrowThreshold, g.ScrollLeft < maxScroll-ArrowThreshold
}

// ScrollStep is the distance moved by one arrow click.
func ScrollStep(clientWidth float64) float64 {
	return clientWidth * ScrollFraction
}

// Carousel holds the last known geometry. Arrow state is always derived from
// it and never stored.
type Carousel struct {
	geom Geometry

	// ItemWidth estimates the rendered width of one card so content changes
	// can update ScrollWidth before the client reports real geometry.
	ItemWidth float64
}

func (c *Carousel) Geometry() Geometry { return c.geom }

func (c *Carousel) Arrows() (left, right bool) { return ArrowVisibility(c.geom) }

func (c *Carousel) OnScroll(scrollLeft float64) {
	c.geom.ScrollLeft = scrollLeft
}

func (c *Carousel) OnResize(clientWidth float64) {
	c.geom.ClientWidth = clientWidth
	c.clamp()
}

// OnContentChange records a new item count. Without an ItemWidth the
// geometry is left as last reported.
func (c *Carousel) OnContentChange(items int) {
	if c.ItemWidth <= 0 {
		return
	}
	c.geom.ScrollWidth = float64(items) * c.ItemWidth
	c.clamp()
}

// Report replaces the geometry with a full client measurement.
func (c *Carousel) Report(g Geometry) {
	c.geom = g
}

// ScrollNext moves one step right and returns the new offset.
func (c *Carousel) ScrollNext() float64 {
	c.geom.ScrollLeft += ScrollStep(c.geom.ClientWidth)
	c.clamp()
	return c.geom.ScrollLeft
}

// ScrollPrev moves one step left and returns the new offset.
func (c *Carousel) ScrollPrev() float64 {
	c.geom.ScrollLeft -= ScrollStep(c.geom.ClientWidth)
	c.clamp()
	return c.geom.ScrollLeft
}

func (c *Carousel) clamp() {
	if m := c.geom.MaxScrollLeft(); c.geom.ScrollLeft > m {
		c.geom.ScrollLeft = m
	}
	if c.geom.ScrollLeft < 0 {
		c.geom.ScrollLeft = 0
	}
}
