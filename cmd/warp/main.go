// Command warp inspects, re-encodes and evaluates persisted mapping graphs,
// and manages a local mapping catalog.
//
// Usage:
//
//	warp show [-in enc] [-plain] [-debug] [file]
//	warp convert -to enc [-in enc] [file]
//	warp apply [-in enc] [-inverse] -points file [file]
//	warp store -db file {put name [file] | get name | list | rm name}
//
// Encodings are native, xml and yaml. When file is omitted the mapping is
// read from stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/warpmap/warp"
	"github.com/warpmap/warp/pkg/dumpfmt"
	"github.com/warpmap/warp/pkg/mapstore"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: warp {show|convert|apply|store} ...")
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "show":
		err = runShow(os.Args[2:])
	case "convert":
		err = runConvert(os.Args[2:])
	case "apply":
		err = runApply(os.Args[2:])
	case "store":
		err = runStore(os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "warp:", err)
		os.Exit(1)
	}
}

// openChannel builds a read channel of the requested encoding over r.
func openChannel(enc string, r io.Reader) (*warp.Channel, error) {
	rw := struct {
		io.Reader
		io.Writer
	}{r, io.Discard}
	switch enc {
	case "native", "":
		return warp.NewChannel(rw), nil
	case "xml":
		return warp.NewXMLChan(rw), nil
	case "yaml":
		return warp.NewYAMLChan(rw), nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
}

// writeChannel builds a write channel of the requested encoding over w.
func writeChannel(enc string, w io.Writer) (*warp.Channel, error) {
	rw := struct {
		io.Reader
		io.Writer
	}{nil, w}
	switch enc {
	case "native", "":
		return warp.NewChannel(rw), nil
	case "xml":
		return warp.NewXMLChan(rw), nil
	case "yaml":
		return warp.NewYAMLChan(rw), nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
}

func readMapping(enc, path string) (warp.Mapping, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	ch, err := openChannel(enc, r)
	if err != nil {
		return nil, err
	}
	obj, err := ch.Read()
	if err != nil {
		return nil, err
	}
	m, ok := obj.(warp.Mapping)
	if !ok {
		obj.Release()
		return nil, fmt.Errorf("%s object is not a mapping", obj.ClassName())
	}
	return m, nil
}

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	enc := fs.String("in", "native", "input encoding (native, xml, yaml)")
	plain := fs.Bool("plain", false, "disable alignment and color")
	debug := fs.Bool("debug", false, "dump the in-memory object instead of the Show form")
	_ = fs.Parse(args)

	m, err := readMapping(*enc, fs.Arg(0))
	if err != nil {
		return err
	}
	defer m.Release()

	if *debug {
		spew.Fdump(os.Stdout, m)
		return nil
	}
	cfg := dumpfmt.Cfg{}
	if !*plain {
		cfg.Align = true
		cfg.Color = isatty.IsTerminal(os.Stdout.Fd())
	}
	fmt.Fprintf(os.Stdout, "%s (%d -> %d axes)\n", m.ClassName(), m.NIn(), m.NOut())
	_, err = io.WriteString(os.Stdout, dumpfmt.Format(m.Show(), cfg))
	return err
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	in := fs.String("in", "native", "input encoding")
	to := fs.String("to", "", "output encoding (native, xml, yaml)")
	simplify := fs.Bool("simplify", false, "simplify the mapping before writing")
	_ = fs.Parse(args)
	if *to == "" {
		return fmt.Errorf("convert: -to is required")
	}

	m, err := readMapping(*in, fs.Arg(0))
	if err != nil {
		return err
	}
	defer m.Release()

	out := m
	if *simplify {
		out = m.Simplify()
		defer out.Release()
	}
	ch, err := writeChannel(*to, os.Stdout)
	if err != nil {
		return err
	}
	return ch.Write(out)
}

func runApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	in := fs.String("in", "native", "input encoding")
	pointsPath := fs.String("points", "", "YAML file with a list of points")
	inverse := fs.Bool("inverse", false, "apply the inverse transformation")
	_ = fs.Parse(args)
	if *pointsPath == "" {
		return fmt.Errorf("apply: -points is required")
	}

	m, err := readMapping(*in, fs.Arg(0))
	if err != nil {
		return err
	}
	defer m.Release()

	data, err := os.ReadFile(*pointsPath)
	if err != nil {
		return err
	}
	var points [][]float64
	if err := yaml.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("parse points: %w", err)
	}
	batch, err := toBatch(points)
	if err != nil {
		return err
	}

	var res [][]float64
	if *inverse {
		res, err = m.TranInverse(batch)
	} else {
		res, err = m.TranForward(batch)
	}
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(toPoints(res))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

// toBatch transposes point-major YAML input into the axis-major batch
// layout mappings evaluate.
func toBatch(points [][]float64) ([][]float64, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points given")
	}
	axes := len(points[0])
	batch := make([][]float64, axes)
	for i := range batch {
		batch[i] = make([]float64, len(points))
	}
	for k, p := range points {
		if len(p) != axes {
			return nil, fmt.Errorf("point %d has %d coordinates, want %d", k, len(p), axes)
		}
		for i, v := range p {
			batch[i][k] = v
		}
	}
	return batch, nil
}

func toPoints(batch [][]float64) [][]float64 {
	if len(batch) == 0 {
		return nil
	}
	points := make([][]float64, len(batch[0]))
	for k := range points {
		p := make([]float64, len(batch))
		for i := range batch {
			p[i] = batch[i][k]
		}
		points[k] = p
	}
	return points
}

func runStore(args []string) error {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	db := fs.String("db", "warp.db", "catalog file")
	enc := fs.String("in", "native", "input encoding for put")
	verbose := fs.Bool("v", false, "log catalog operations")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("store: expected put, get, list or rm")
	}

	var opts []mapstore.Option
	if *verbose {
		opts = append(opts, mapstore.WithLogger(warp.NewLogger(warp.LevelDebug, os.Stderr)))
	}
	store, err := mapstore.Open(*db, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	switch cmd := fs.Arg(0); cmd {
	case "put":
		if fs.Arg(1) == "" {
			return fmt.Errorf("store put: name is required")
		}
		m, err := readMapping(*enc, fs.Arg(2))
		if err != nil {
			return err
		}
		defer m.Release()
		return store.Put(ctx, fs.Arg(1), m)
	case "get":
		m, err := store.Get(ctx, fs.Arg(1))
		if err != nil {
			return err
		}
		defer m.Release()
		return warp.NewChannel(struct {
			io.Reader
			io.Writer
		}{nil, os.Stdout}).Write(m)
	case "list":
		entries, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s\t%s\t%s\n", e.Name, e.Class, e.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	case "rm":
		return store.Delete(ctx, fs.Arg(1))
	default:
		return fmt.Errorf("store: unknown subcommand %q", cmd)
	}
}
