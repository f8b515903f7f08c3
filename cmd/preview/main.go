package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kovidgoyal/gpucolor"
	"github.com/kovidgoyal/gpucolor/colorconv"
	"github.com/kovidgoyal/gpucolor/preview"
)

var _ = fmt.Print

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/preview [flags] options.json [input-image] output-file\n")
		flag.PrintDefaults()
	}
	id := flag.Uint("monitor", 0, "The monitor whose options are used, defaults to the first one")
	edid := flag.String("edid", "", "The monitor primaries as rx,ry,gx,gy,bx,by, defaults to sRGB")
	flip := flag.Duration("flip", 0, "Write an animated PNG alternating between input and output every flip interval")
	quality := flag.Int("quality", 95, "The quality of JPEG output, in [1, 100]")
	colors := flag.Int("colors", 256, "The palette size of GIF output, in [1, 256]")
	fast := flag.Bool("fast", false, "Use the fastest PNG compression")
	no_orient := flag.Bool("no-orient", false, "Ignore the EXIF orientation of the input image")
	verbose := flag.Bool("v", false, "Log the decisions made")
	version := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()
	if *version {
		fmt.Println(gpucolor.VersionBanner("preview"))
		return
	}
	if flag.NArg() < 2 || flag.NArg() > 3 {
		flag.Usage()
		os.Exit(1)
	}
	if *verbose {
		gpucolor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	opts, err := gpucolor.LoadOptions(flag.Arg(0))
	if err != nil {
		return
	}
	if len(opts) == 0 {
		err = fmt.Errorf("no monitors configured in: %s", flag.Arg(0))
		return
	}
	o := opts[0]
	if *id > 0 {
		var found bool
		if o, found = gpucolor.FindOptions(opts, uint32(*id)); !found {
			err = fmt.Errorf("no options for monitor %d in: %s", *id, flag.Arg(0))
			return
		}
	}
	m := gpucolor.Monitor{ID: o.ID, Name: "sRGB", EDID: colorconv.SRGB}
	if *edid != "" {
		parts := strings.Split(*edid, ",")
		if len(parts) != 6 {
			err = fmt.Errorf("-edid needs six comma separated coordinates, got: %s", *edid)
			return
		}
		var v [6]float64
		for i, p := range parts {
			if v[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
				return
			}
		}
		m = gpucolor.NewMonitor(o.ID, "", [2]float64{v[0], v[1]}, [2]float64{v[2], v[3]}, [2]float64{v[4], v[5]}, false)
	}
	d, err := gpucolor.Compute(m, o)
	if err != nil {
		return
	}

	var input image.Image
	output_file := flag.Arg(1)
	if flag.NArg() == 3 {
		if input, err = preview.Open(flag.Arg(1), preview.AutoOrientation(!*no_orient)); err != nil {
			return
		}
		output_file = flag.Arg(2)
	} else {
		input = preview.TestPattern(1024, 256)
	}
	start := time.Now()
	output, err := preview.Simulate(input, d)
	if err != nil {
		return
	}
	gpucolor.Logger().Debug("simulated", "duration", time.Since(start))
	stats, err := preview.Report(input, output)
	if err != nil {
		return
	}
	fmt.Println(stats)
	if *flip > 0 {
		err = preview.SaveFlip(input, output, output_file, *flip)
	} else {
		level := png.DefaultCompression
		if *fast {
			level = png.BestSpeed
		}
		err = preview.Save(output, output_file, preview.JPEGQuality(*quality), preview.GIFNumColors(*colors), preview.PNGCompressionLevel(level))
	}
	if err == nil {
		fmt.Println("Preview saved to:", output_file)
	}
}
