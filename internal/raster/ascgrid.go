package raster

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ParseASCIIGrid decodes an Esri ASCII grid (the ArcGrid output format of
// GeoServer WCS and ArcGIS export endpoints) into a Grid. The header carries
// ncols/nrows, the lower-left corner (or center), the cell size, and an
// optional nodata sentinel; the body is nrows lines of ncols values ordered
// top to bottom.
func ParseASCIIGrid(data []byte) (*Grid, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	header := map[string]float64{}
	var rows [][]float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 2 && !isNumeric(fields[0]) {
			key := strings.ToLower(fields[0])
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("ascii grid: bad header %q: %w", line, err)
			}
			header[key] = v
			continue
		}

		row := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("ascii grid: bad value %q: %w", f, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ascii grid: %w", err)
	}

	ncols, ok1 := header["ncols"]
	nrows, ok2 := header["nrows"]
	cell, ok3 := header["cellsize"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("ascii grid: missing ncols/nrows/cellsize header")
	}

	width := int(ncols)
	height := int(nrows)
	if len(rows) != height {
		return nil, fmt.Errorf("ascii grid: expected %d rows, got %d", height, len(rows))
	}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("ascii grid: row %d has %d values, expected %d", i, len(row), width)
		}
	}

	// Corner-referenced headers give the lower-left corner of the lower-left
	// cell; center-referenced ones give its center.
	var originX, lowerY float64
	switch {
	case hasKeys(header, "xllcorner", "yllcorner"):
		originX = header["xllcorner"]
		lowerY = header["yllcorner"]
	case hasKeys(header, "xllcenter", "yllcenter"):
		originX = header["xllcenter"] - cell/2
		lowerY = header["yllcenter"] - cell/2
	default:
		return nil, fmt.Errorf("ascii grid: missing origin header")
	}

	g := &Grid{
		Width:  width,
		Height: height,
		Transform: [6]float64{
			originX, cell, 0,
			lowerY + nrows*cell, 0, -cell,
		},
		CRS:    "EPSG:4326",
		Values: rows,
	}

	if nd, ok := header["nodata_value"]; ok {
		g.NoData = nd
		g.HasNoData = true
	}

	return g, nil
}

func hasKeys(m map[string]float64, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
