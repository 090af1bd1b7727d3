// Package tables identifies tabular regions in extracted content and emits
// them as structured rows and columns. Input is either explicit cell grids
// from native layout (docx) or positioned text boxes (pdf layout, OCR).
//
// Detection never fails: a page with no tabular region yields an empty
// result, since the absence of tables is a normal outcome.
package tables

import (
	"math"
	"sort"
	"strings"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// Config 检测参数
type Config struct {
	// RowOverlap is the vertical tolerance for two boxes to share a row,
	// as a fraction of the median box height.
	RowOverlap float64
	// CellGap is the horizontal gap that separates two cells, as a
	// multiple of the median box height.
	CellGap float64
	// ColumnAlign is the horizontal alignment tolerance for cells across
	// rows to share a column, as a fraction of the median box height.
	ColumnAlign float64
	// Minimum shape for a region to count as a table instead of noise.
	MinRows    int
	MinColumns int
}

func DefaultConfig() Config {
	return Config{
		RowOverlap:  0.6,
		CellGap:     2.0,
		ColumnAlign: 1.0,
		MinRows:     2,
		MinColumns:  2,
	}
}

type Detector struct {
	cfg    Config
	logger logger.Logger
}

func NewDetector(log logger.Logger, cfg Config) *Detector {
	if cfg.MinRows <= 0 {
		cfg = DefaultConfig()
	}
	return &Detector{cfg: cfg, logger: log}
}

// FromLayout wraps explicit cell grids from native table markup. Rows pass
// through verbatim; uneven lengths only set the Irregular flag.
func (d *Detector) FromLayout(grids [][][]string) []models.Table {
	var out []models.Table
	for _, grid := range grids {
		if len(grid) == 0 {
			continue
		}
		table := models.Table{Rows: grid}
		width := len(grid[0])
		for _, row := range grid[1:] {
			if len(row) != width {
				table.Irregular = true
				break
			}
		}
		out = append(out, table)
	}
	return out
}

// FromBoxes clusters positioned text boxes into tables: rows by vertical
// overlap, cells by horizontal gaps, columns by alignment across rows.
func (d *Detector) FromBoxes(boxes []models.BoundingBox) []models.Table {
	var out []models.Table
	for _, page := range splitByPage(boxes) {
		out = append(out, d.detectPage(page)...)
	}
	return out
}

func splitByPage(boxes []models.BoundingBox) [][]models.BoundingBox {
	byPage := make(map[int][]models.BoundingBox)
	var pages []int
	for _, b := range boxes {
		if _, ok := byPage[b.Page]; !ok {
			pages = append(pages, b.Page)
		}
		byPage[b.Page] = append(byPage[b.Page], b)
	}
	sort.Ints(pages)
	out := make([][]models.BoundingBox, 0, len(pages))
	for _, p := range pages {
		out = append(out, byPage[p])
	}
	return out
}

// rowCluster 一行的聚类状态
type rowCluster struct {
	center float64 // running mean of member vertical centers
	boxes  []models.BoundingBox
}

func (d *Detector) detectPage(boxes []models.BoundingBox) []models.Table {
	if len(boxes) == 0 {
		return nil
	}

	unit := medianHeight(boxes)
	if unit <= 0 {
		return nil
	}
	rowTol := d.cfg.RowOverlap * unit
	cellGap := d.cfg.CellGap * unit
	colTol := d.cfg.ColumnAlign * unit

	rows := clusterRows(boxes, rowTol)

	// Split each row into cells on horizontal gaps.
	detected := make([]detectedRow, 0, len(rows))
	for _, r := range rows {
		detected = append(detected, detectedRow{
			center: r.center,
			cells:  splitCells(r.boxes, cellGap),
		})
	}

	// Consecutive multi-cell rows form a candidate tabular region.
	var out []models.Table
	var region []detectedRow
	flush := func() {
		if len(region) >= d.cfg.MinRows {
			if t, ok := d.buildTable(region, colTol); ok {
				out = append(out, t)
			}
		}
		region = region[:0]
	}
	for _, r := range detected {
		if len(r.cells) >= d.cfg.MinColumns {
			region = append(region, r)
			continue
		}
		flush()
	}
	flush()

	return out
}

// clusterRows groups boxes whose vertical centers fall within tol. When a
// center is within tolerance of more than one cluster it goes to the one
// with the closer center, not the first found.
func clusterRows(boxes []models.BoundingBox, tol float64) []rowCluster {
	sorted := make([]models.BoundingBox, len(boxes))
	copy(sorted, boxes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CenterY() < sorted[j].CenterY() })

	var clusters []rowCluster
	for _, b := range sorted {
		best := -1
		bestDist := math.MaxFloat64
		for i := range clusters {
			dist := math.Abs(clusters[i].center - b.CenterY())
			if dist <= tol && dist < bestDist {
				best = i
				bestDist = dist
			}
		}
		if best < 0 {
			clusters = append(clusters, rowCluster{center: b.CenterY(), boxes: []models.BoundingBox{b}})
			continue
		}
		c := &clusters[best]
		c.boxes = append(c.boxes, b)
		c.center += (b.CenterY() - c.center) / float64(len(c.boxes))
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].center < clusters[j].center })
	return clusters
}

// cell 行内一个单元格：左边界加合并后的文本
type cell struct {
	left float64
	text string
}

// detectedRow 聚类后的一行及其单元格
type detectedRow struct {
	center float64
	cells  []cell
}

func splitCells(boxes []models.BoundingBox, gap float64) []cell {
	sorted := make([]models.BoundingBox, len(boxes))
	copy(sorted, boxes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []cell
	var words []string
	var left, right float64
	for i, b := range sorted {
		if i == 0 {
			left, right = b.X, b.X+b.Width
			words = []string{b.Text}
			continue
		}
		if b.X-right > gap {
			cells = append(cells, cell{left: left, text: strings.Join(words, " ")})
			left = b.X
			words = words[:0]
		}
		words = append(words, b.Text)
		if b.X+b.Width > right {
			right = b.X + b.Width
		}
	}
	if len(words) > 0 {
		cells = append(cells, cell{left: left, text: strings.Join(words, " ")})
	}
	return cells
}

// buildTable aligns region cells into columns. Rows that don't fit the
// column grid are kept verbatim with the table marked irregular.
func (d *Detector) buildTable(region []detectedRow, colTol float64) (models.Table, bool) {
	// Column positions from clustering cell left edges across the region.
	var lefts []float64
	for _, r := range region {
		for _, c := range r.cells {
			lefts = append(lefts, c.left)
		}
	}
	sort.Float64s(lefts)

	var columns []float64
	for _, l := range lefts {
		if len(columns) == 0 || l-columns[len(columns)-1] > colTol {
			columns = append(columns, l)
		}
	}
	if len(columns) < d.cfg.MinColumns {
		return models.Table{}, false
	}

	table := models.Table{Rows: make([][]string, 0, len(region))}
	for _, r := range region {
		aligned := make([]string, len(columns))
		fits := len(r.cells) <= len(columns)
		for _, c := range r.cells {
			col := nearestColumn(columns, c.left)
			if math.Abs(columns[col]-c.left) > colTol || aligned[col] != "" {
				fits = false
				break
			}
			aligned[col] = c.text
		}
		if fits {
			table.Rows = append(table.Rows, aligned)
			continue
		}
		// verbatim passthrough for rows outside the grid
		verbatim := make([]string, len(r.cells))
		for i, c := range r.cells {
			verbatim[i] = c.text
		}
		table.Rows = append(table.Rows, verbatim)
		table.Irregular = true
	}

	return table, true
}

func nearestColumn(columns []float64, left float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, c := range columns {
		if dist := math.Abs(c - left); dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

func medianHeight(boxes []models.BoundingBox) float64 {
	heights := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		if b.Height > 0 {
			heights = append(heights, b.Height)
		}
	}
	if len(heights) == 0 {
		return 0
	}
	sort.Float64s(heights)
	return heights[len(heights)/2]
}
