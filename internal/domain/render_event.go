package domain

// RenderEvent records a single served render.
// Corresponds to render_events table in ClickHouse.
type RenderEvent struct {
	Address    string  // validated address
	Renderer   string  // tier | classic | blob
	Format     string  // svg | png
	Balance    float64 // balance used for derivation
	Serial     string  // serial number shown on the image
	Rasterized bool    // false when PNG was requested but SVG was served
	DurationMs int64   // render duration
	CacheHit   bool    // served from the output cache
	Timestamp  int64   // Unix timestamp in milliseconds
}

// RenderTotals summarizes render events per renderer.
type RenderTotals struct {
	Renderer string `json:"renderer"`
	Renders  int64  `json:"renders"`
	CacheHit int64  `json:"cache_hits"`
}
