// Command contactsheet lays rendered frames out on a cols×rows grid, to
// review a whole scroll sequence at a glance.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/echoflaresat/spacescroll/texture"
)

func main() {
	gap := flag.Int("gap", 0, "Gap between frames in pixels")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-gap N] <cols>x<rows> <output.png|jpg> <frame1> <frame2> ...\n", os.Args[0])
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 3 {
		flag.Usage()
		os.Exit(1)
	}

	cols, rows, err := parseGrid(args[0])
	if err != nil {
		log.Fatal(err)
	}
	output := args[1]
	inputFiles := args[2:]
	if len(inputFiles) > cols*rows {
		log.Fatalf("Grid %dx%d holds %d frames, got %d", cols, rows, cols*rows, len(inputFiles))
	}

	tiles := make([]image.Image, 0, len(inputFiles))
	for _, path := range inputFiles {
		fmt.Printf("Processing %s\n", path)
		tile, err := texture.Decode(path)
		if err != nil {
			log.Fatalf("Could not load input file %q: %v", path, err)
		}
		tiles = append(tiles, tile)
	}

	canvas, err := layout(tiles, cols, rows, *gap)
	if err != nil {
		log.Fatal(err)
	}
	if err := save(output, canvas); err != nil {
		log.Fatal(err)
	}
}

func parseGrid(s string) (cols, rows int, err error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid grid %q (expected NxM)", s)
	}
	if cols, err = strconv.Atoi(parts[0]); err != nil || cols <= 0 {
		return 0, 0, fmt.Errorf("invalid cols in %q", s)
	}
	if rows, err = strconv.Atoi(parts[1]); err != nil || rows <= 0 {
		return 0, 0, fmt.Errorf("invalid rows in %q", s)
	}
	return cols, rows, nil
}

// layout draws tiles row-major onto a transparent canvas. Every tile must
// match the first one's size; unused cells stay empty.
func layout(tiles []image.Image, cols, rows, gap int) (*image.NRGBA, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("no frames")
	}
	tileW, tileH := tiles[0].Bounds().Dx(), tiles[0].Bounds().Dy()
	canvas := image.NewNRGBA(image.Rect(0, 0, cols*tileW+(cols-1)*gap, rows*tileH+(rows-1)*gap))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	for idx, tile := range tiles {
		if tile.Bounds().Dx() != tileW || tile.Bounds().Dy() != tileH {
			return nil, fmt.Errorf("frame %d size mismatch: expected %dx%d, got %dx%d",
				idx, tileW, tileH, tile.Bounds().Dx(), tile.Bounds().Dy())
		}
		x := (idx % cols) * (tileW + gap)
		y := (idx / cols) * (tileH + gap)
		draw.Draw(canvas, image.Rect(x, y, x+tileW, y+tileH), tile, tile.Bounds().Min, draw.Over)
	}
	return canvas, nil
}

// save encodes canvas by the extension of output. A failed encode removes
// the partial file.
func save(output string, canvas *image.NRGBA) (err error) {
	ext := strings.ToLower(filepath.Ext(output))
	var encode func(io.Writer) error
	switch ext {
	case ".png":
		encode = func(w io.Writer) error { return png.Encode(w, canvas) }
	case ".jpg", ".jpeg":
		encode = func(w io.Writer) error { return jpeg.Encode(w, canvas, &jpeg.Options{Quality: 95}) }
	default:
		return fmt.Errorf("unsupported output format: %q", ext)
	}

	outFile, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", output, err)
	}
	defer func() {
		if cerr := outFile.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("could not close %s: %w", output, cerr)
		}
		if err != nil {
			os.Remove(output)
		}
	}()

	if err := encode(outFile); err != nil {
		return fmt.Errorf("failed to encode %s: %w", output, err)
	}

	if info, err := outFile.Stat(); err == nil {
		fmt.Printf("-> created %s (%dx%d, %s)\n", output, canvas.Bounds().Dx(), canvas.Bounds().Dy(), humanize.Bytes(uint64(info.Size())))
	}
	return nil
}
