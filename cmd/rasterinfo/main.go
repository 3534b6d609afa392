package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pspoerri/terrainview/internal/config"
	"github.com/pspoerri/terrainview/internal/raster"
	"github.com/pspoerri/terrainview/internal/texture"
)

func main() {
	var (
		configPath string
		dem        bool
		cells      string
	)
	flag.StringVar(&configPath, "config", "", "YAML config file (target CRS, source mode)")
	flag.BoolVar(&dem, "dem", false, "Also load band 1 as a DEM and print height statistics")
	flag.StringVar(&cells, "cell", "", "With -dem, print heights at cells given as col,row[;col,row...]")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rasterinfo [flags] <file.tif>\n\n")
		fmt.Fprintf(os.Stderr, "Print layout, georeferencing and texture format of a GeoTIFF.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatalf("Config: %v", err)
		}
	}
	loader, err := cfg.Loader()
	if err != nil {
		log.Fatalf("Target CRS: %v", err)
	}

	ds, err := raster.Open(path)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer ds.Close()

	fmt.Printf("File: %s\n", path)
	fmt.Printf("EPSG: %d\n", ds.EPSG())
	fmt.Printf("Size: %d x %d, %d band(s), %s\n", ds.Width(), ds.Height(), ds.Bands(), ds.DataType())
	cw, ch := ds.ChunkSize()
	layout := "strips"
	if ds.Tiled() {
		layout = "tiles"
	}
	fmt.Printf("Layout: %s %dx%d, compression %d, IFD count %d\n", layout, cw, ch, ds.Compression(), ds.IFDCount())
	if nd, ok := ds.NoData(); ok {
		fmt.Printf("NoData: %g\n", nd)
	}
	if table, ok := ds.ColorTable(); ok {
		fmt.Printf("Color table: %d entries\n", len(table))
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		fmt.Printf("GeoTransform: ERROR: %v\n", err)
		os.Exit(1)
	}
	if ds.WorldFile() != "" {
		fmt.Printf("World file: %s\n", ds.WorldFile())
	}
	fmt.Printf("GeoTransform: %v\n", gt)
	b := gt.Bounds(ds.Width(), ds.Height())
	fmt.Printf("Bounds (source): X=[%f, %f], Y=[%f, %f]\n", b.Min[0], b.Max[0], b.Min[1], b.Max[1])

	target := loader.Reprojector.Target
	projected, err := loader.Georeference(ds)
	if err != nil {
		fmt.Printf("Reprojected (EPSG:%d %s): ERROR: %v\n", target.EPSG(), target.Name(), err)
	} else {
		fmt.Printf("Reprojected (EPSG:%d %s, %s): %v\n", target.EPSG(), target.Name(), loader.Reprojector.Mode, projected)
		pb := projected.Bounds(ds.Width(), ds.Height())
		fmt.Printf("Bounds (target): X=[%f, %f], Y=[%f, %f]\n", pb.Min[0], pb.Max[0], pb.Min[1], pb.Max[1])
	}

	if img, err := texture.Normalize(ds, projected); err != nil {
		fmt.Printf("Texture: ERROR: %v\n", err)
	} else {
		fmt.Printf("Texture: %dx%d, %d channel(s), %s %s %s\n",
			img.Width, img.Height, img.Channels, img.Format, img.InternalFormat, img.DataType)
		samplePixels(img, 5)
	}

	if dem {
		grid, err := loader.LoadDEM(path)
		if err != nil {
			log.Fatalf("DEM: %v", err)
		}
		c := grid.Center()
		fmt.Printf("DEM: height [%.2f, %.2f], %d nodata cell(s) filled, center (%f, %f)\n",
			grid.Min, grid.Max, grid.Filled, c[0], c[1])
		if cells != "" {
			printCells(grid, cells)
		}
	}
}

func printCells(grid *raster.DemGrid, list string) {
	for _, cell := range strings.Split(list, ";") {
		col, row, ok := strings.Cut(strings.TrimSpace(cell), ",")
		c, cerr := strconv.Atoi(strings.TrimSpace(col))
		r, rerr := strconv.Atoi(strings.TrimSpace(row))
		switch {
		case !ok || cerr != nil || rerr != nil:
			fmt.Printf("  Cell %q: want col,row\n", cell)
		case !grid.Contains(c, r):
			fmt.Printf("  Cell (%d,%d): outside the %dx%d grid\n", c, r, grid.Width, grid.Height)
		default:
			x, y := grid.Transform.Apply(float64(c)+0.5, float64(r)+0.5)
			fmt.Printf("  Cell (%d,%d) at (%f, %f): %.2f m\n", c, r, x, y, grid.At(c, r))
		}
	}
}

func samplePixels(img *texture.Image, count int) {
	rgba := img.ToImage()
	b := rgba.Bounds()
	step := max(b.Dx()/(count+1), 1)
	fmt.Printf("  Sample pixels (diagonal):\n")
	for i := 0; i < count; i++ {
		x := b.Min.X + (i+1)*step
		y := b.Min.Y + (i+1)*step
		if x >= b.Max.X || y >= b.Max.Y {
			break
		}
		c := rgba.NRGBAAt(x, y)
		fmt.Printf("    (%d,%d): R=%d G=%d B=%d A=%d\n", x, y, c.R, c.G, c.B, c.A)
	}
}
