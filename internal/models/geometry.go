package models

// BoundingBox 带位置的文本片段，来自 OCR 识别或 PDF 布局。
// 坐标为页面坐标系，原点在左上角。
type BoundingBox struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
	Page       int     `json:"page"`
}

// CenterY returns the vertical center of the box.
func (b BoundingBox) CenterY() float64 {
	return b.Y + b.Height/2
}

// CenterX returns the horizontal center of the box.
func (b BoundingBox) CenterX() float64 {
	return b.X + b.Width/2
}
