package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Faultbox/modelkit/internal/config"
	"github.com/Faultbox/modelkit/internal/convert"
	"github.com/Faultbox/modelkit/internal/logger"
	"github.com/Faultbox/modelkit/pkg/formats"
	"github.com/Faultbox/modelkit/pkg/model"
)

type app struct {
	cfg *config.Config
	out *printer
}

func (a *app) importer() *convert.Importer {
	return &convert.Importer{
		Logger:     logger.Named("import"),
		SkipStrips: !a.cfg.Strips.Build,
	}
}

func (a *app) exporter() *convert.Exporter {
	return &convert.Exporter{
		Logger:      logger.Named("export"),
		PreferEuler: a.cfg.Convert.PreferEuler,
	}
}

// outputFormat picks the format for path: an explicit -format wins,
// then the extension, then the configured default.
func (a *app) outputFormat(path string, explicit bool) (formats.Format, error) {
	if !explicit {
		if f, err := formats.FormatForPath(path); err == nil && formats.CanWrite(f) {
			return f, nil
		}
	}
	f, err := a.cfg.OutputFormat()
	if err != nil {
		return "", err
	}
	if !formats.CanWrite(f) {
		return "", fmt.Errorf("%w: %s", formats.ErrUnsupportedFormat, f)
	}
	return f, nil
}

func (a *app) checkOutput(path string) error {
	if a.cfg.Convert.Overwrite {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s exists (use -overwrite)", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func formatFlagSet() bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "format" {
			set = true
		}
	})
	return set
}

func (a *app) cmdInfo(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: mtconv info <model>")
	}

	m, report, err := a.importer().ImportFile(args[0])
	if err != nil {
		return err
	}

	a.out.heading("Model %s", m.Name)
	a.out.field("Source", args[0])
	a.out.field("Joints", len(m.Joints))
	a.out.field("Meshes", len(m.Meshes))
	a.out.field("Vertices", m.VertexCount())
	a.out.field("Faces", m.FaceCount())
	a.out.field("Strips", m.StripCount())

	box := m.BoundingBox()
	a.out.field("Bounds", fmt.Sprintf("center %v size %v", box.Center, box.Size))
	shape := m.BoundingShape()
	a.out.field("Shape", shape.Kind)

	if len(m.Joints) > 0 {
		a.out.blank()
		a.out.heading("Joints")
		printJoints(a.out, m)
	}

	a.out.blank()
	a.out.heading("Meshes")
	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		material := "-"
		if idx, ok := mesh.Material.Get(); ok {
			material = m.Materials[idx].Name
		}
		skinned := 0
		for v := range mesh.Vertices {
			if mesh.Vertices[v].IsSkinned() {
				skinned++
			}
		}
		a.out.line("  %-24s %6d verts %6d faces %4d strips  skinned %d  material %s",
			mesh.Name, len(mesh.Vertices), len(mesh.Faces), len(mesh.Strips), skinned, material)
	}

	if len(m.Materials) > 0 {
		a.out.blank()
		a.out.heading("Materials")
		for _, mat := range m.Materials {
			tex := mat.DiffuseTexture
			if tex == "" {
				tex = "(none)"
			}
			a.out.line("  %-24s %s", mat.Name, tex)
		}
	}

	printReport(a.out, report)
	return nil
}

// printJoints prints the joint tree. Parents always precede their children,
// so depth can be computed in one pass.
func printJoints(p *printer, m *model.Model) {
	depth := make([]int, len(m.Joints))
	for i, j := range m.Joints {
		if parent, ok := j.Parent.Get(); ok {
			depth[i] = depth[parent] + 1
		}
		t := j.Absolute.Translation.OrElse(j.Absolute.MatrixOrCompose(false).Translation())
		p.line("  %s%s  %v", strings.Repeat("  ", depth[i]), j.Name, t)
	}
}

func printReport(p *printer, r *convert.Report) {
	if len(r.Unresolved) == 0 && r.InvalidWeights == 0 {
		return
	}
	p.blank()
	for _, u := range r.Unresolved {
		p.warn("unresolved %s", u)
	}
	if r.InvalidWeights > 0 {
		p.warn("%d weights referenced missing vertices", r.InvalidWeights)
	}
}

func (a *app) cmdConvert(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: mtconv convert <in> <out>")
	}
	in, out := args[0], args[1]

	f, err := a.outputFormat(out, formatFlagSet())
	if err != nil {
		return err
	}
	if err := a.checkOutput(out); err != nil {
		return err
	}

	m, report, err := a.importer().ImportFile(in)
	if err != nil {
		return err
	}
	printReport(a.out, report)

	if err := a.exporter().ExportFile([]*model.Model{m}, f, out); err != nil {
		return err
	}
	a.out.ok("%s -> %s (%s, %d joints, %d meshes)", in, out, f.Description(), len(m.Joints), len(m.Meshes))
	return nil
}

func (a *app) cmdMerge(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: mtconv merge <out> <in> [in...]")
	}
	out, inputs := args[0], args[1:]

	f, err := a.outputFormat(out, formatFlagSet())
	if err != nil {
		return err
	}
	if err := a.checkOutput(out); err != nil {
		return err
	}

	models := make([]*model.Model, 0, len(inputs))
	for _, in := range inputs {
		m, report, err := a.importer().ImportFile(in)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		printReport(a.out, report)
		models = append(models, m)
	}

	if err := a.exporter().ExportFile(models, f, out); err != nil {
		return err
	}
	a.out.ok("%d models -> %s (%s)", len(models), out, f.Description())
	return nil
}

func (a *app) cmdStrips(args []string) error {
	fset := flag.NewFlagSet("strips", flag.ExitOnError)
	verbose := fset.Bool("v", false, "Print strip indices")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 1 {
		return errors.New("usage: mtconv strips [-v] <model> [mesh]")
	}
	only := fset.Arg(1)

	m, _, err := a.importer().ImportFile(fset.Arg(0))
	if err != nil {
		return err
	}
	if !a.cfg.Strips.Build {
		if err := m.BuildTriangleStrips(); err != nil {
			return err
		}
	}

	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		if only != "" && mesh.Name != only {
			continue
		}
		longest, indices := 0, 0
		for s := range mesh.Strips {
			longest = max(longest, mesh.Strips[s].Len())
			indices += len(mesh.Strips[s].Indices)
		}
		ratio := 0.0
		if len(mesh.Faces) > 0 {
			ratio = float64(indices) / float64(3*len(mesh.Faces))
		}
		a.out.heading("%s", mesh.Name)
		a.out.field("Faces", len(mesh.Faces))
		a.out.field("Strips", len(mesh.Strips))
		a.out.field("Longest", longest)
		a.out.field("Indices", fmt.Sprintf("%d (%.0f%% of a triangle list)", indices, ratio*100))
		if *verbose {
			for s := range mesh.Strips {
				a.out.line("  %4d: %v", s, mesh.Strips[s].Indices)
			}
		}
		a.out.blank()
	}
	return nil
}

func cmdFormats() {
	p := newPrinter(os.Stdout)
	p.heading("%-10s %-6s %-5s %-5s %s", "ID", "EXT", "READ", "WRITE", "DESCRIPTION")
	for _, f := range formats.All() {
		read := formats.CanRead("x." + f.Extension())
		p.line("%-10s %-6s %-5s %-5s %s", f, f.Extension(), yesNo(read), yesNo(formats.CanWrite(f)), f.Description())
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
