package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kovidgoyal/gpucolor"
	"github.com/kovidgoyal/gpucolor/colorconv"
	"github.com/kovidgoyal/gpucolor/csc"
)

var _ = fmt.Print

func parse_edid(args []string) (ans gpucolor.Monitor, err error) {
	if len(args) != 6 && len(args) != 8 {
		return ans, fmt.Errorf("EDID needs six or eight coordinates, got %d", len(args))
	}
	var v [8]float64
	for i, a := range args {
		if v[i], err = strconv.ParseFloat(a, 64); err != nil {
			return ans, fmt.Errorf("invalid EDID coordinate %#v: %w", a, err)
		}
	}
	// the EDID white point is not used
	return gpucolor.NewMonitor(0, "", [2]float64{v[0], v[1]}, [2]float64{v[2], v[3]}, [2]float64{v[4], v[5]}, false), nil
}

// output_path returns the file the descriptor for monitor id is written to.
// With more than one monitor the id is inserted before the extension.
func output_path(base string, id uint32, several bool) string {
	if !several {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), id, ext)
}

type dumped struct {
	id   uint32
	data []byte
}

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/cscdump [flags] options.json [rx ry gx gy bx by [wx wy]]\n")
		flag.PrintDefaults()
	}
	output := flag.String("o", "", "Write the descriptor in adapter binary layout to this file, with several monitors the monitor id is added to the name")
	id := flag.Int("monitor", -1, "Only dump the monitor with this id")
	ramps := flag.Bool("ramps", false, "Include the ramps in the JSON output")
	dry_run := flag.Bool("dry-run", false, "Apply to a recording adapter and print the calls made")
	dither := flag.String("dither", "", "With -dry-run also set dithering: default, disabled or depth,mode such as 8,Temporal")
	verbose := flag.Bool("v", false, "Log the decisions made")
	version := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()
	if *version {
		fmt.Println(gpucolor.VersionBanner("cscdump"))
		return
	}
	if flag.NArg() < 1 {
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
	monitor := gpucolor.Monitor{Name: "sRGB", EDID: colorconv.SRGB}
	if flag.NArg() > 1 {
		if monitor, err = parse_edid(flag.Args()[1:]); err != nil {
			return
		}
	}
	var dc *csc.DitherControl
	if *dither != "" {
		if !*dry_run {
			err = fmt.Errorf("-dither needs -dry-run")
			return
		}
		var v csc.DitherControl
		if v, err = csc.ParseDitherControl(*dither); err != nil {
			return
		}
		dc = &v
	}
	sink := csc.NewMemorySink()
	var binaries []dumped
	for _, o := range opts {
		if *id > -1 && uint32(*id) != o.ID {
			continue
		}
		m := monitor
		m.ID = o.ID
		if *dry_run {
			o.Clamp = true
			if err = gpucolor.Apply(context.Background(), sink, m, o); err != nil {
				return
			}
			if dc != nil {
				if _, err = gpucolor.ApplyDither(context.Background(), sink, m.ID, *dc); err != nil {
					return
				}
			}
			continue
		}
		var d *csc.Descriptor
		if d, err = gpucolor.Compute(m, o); err != nil {
			return
		}
		if *output != "" {
			var b []byte
			if b, err = d.MarshalBinary(); err != nil {
				return
			}
			binaries = append(binaries, dumped{o.ID, b})
		}
		if !*ramps {
			d = d.Clone()
			d.Ramps = nil
		}
		var b []byte
		if b, err = json.MarshalIndent(map[string]any{"monitor": o.ID, "descriptor": d}, "", "  "); err != nil {
			return
		}
		fmt.Println(string(b))
	}
	if *dry_run {
		for _, c := range sink.Calls() {
			fmt.Printf("%s(%d)", c.Op, c.DisplayID)
			if c.Descriptor != nil {
				fmt.Printf(" active: %v\n%s", c.Descriptor.IsActive(), c.Descriptor)
			}
			if c.Dither != nil {
				fmt.Printf(" dither: %s", c.Dither)
			}
			fmt.Println()
		}
		return
	}
	for _, b := range binaries {
		path := output_path(*output, b.id, len(binaries) > 1)
		if err = os.WriteFile(path, b.data, 0o666); err != nil {
			return
		}
		fmt.Fprintf(os.Stderr, "Wrote %d bytes to: %s\n", len(b.data), path)
	}
}
