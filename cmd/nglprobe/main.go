// Command nglprobe reflects the binding interface of WGSL shader stages.
//
// It probes each given stage, merges the per-stage reflections the way a
// pipeline would, and prints the resulting bindings. With -compile it
// also cross-compiles every stage to SPIR-V and reports the code sizes.
//
// Usage:
//
//	nglprobe -vert draw.vert.wgsl -frag draw.frag.wgsl
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/ngl"
	"github.com/gogpu/ngl/shader"
)

func main() {
	var (
		vert    = flag.String("vert", "", "vertex stage WGSL file")
		frag    = flag.String("frag", "", "fragment stage WGSL file")
		comp    = flag.String("compute", "", "compute stage WGSL file")
		compile = flag.Bool("compile", false, "cross-compile stages to SPIR-V")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		ngl.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	stages := make([]shader.StageSource, 0, 3)
	for _, in := range []struct {
		path  string
		stage shader.StageMask
	}{
		{*vert, shader.StageVertex},
		{*frag, shader.StageFragment},
		{*comp, shader.StageCompute},
	} {
		if in.path == "" {
			continue
		}
		src, err := os.ReadFile(in.path)
		if err != nil {
			log.Fatalf("read %s: %v", in.path, err)
		}
		stages = append(stages, shader.StageSource{Stage: in.stage, Source: string(src)})
	}
	if len(stages) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	reflections := make([]*shader.Reflection, 0, len(stages))
	for _, s := range stages {
		r, err := shader.Probe(s.Stage, s.Source)
		if err != nil {
			log.Fatalf("probe %s stage: %v", s.Stage, err)
		}
		reflections = append(reflections, r)
	}
	merged, err := shader.Merge(reflections...)
	if err != nil {
		log.Fatalf("merge: %v", err)
	}

	for _, name := range merged.Names() {
		b := merged.Lookup(name)
		fmt.Printf("%-12s %-32s group=%d binding=%-3d size=%-6d stages=%s\n",
			b.Kind, b.Name, b.Group, b.Binding, b.Size, b.Stages)
		for _, f := range b.Fields {
			fmt.Printf("             .%-31s %s\n", f.Name, f.Type)
		}
	}

	if *compile {
		program, err := shader.NewProgram(stages...)
		if err != nil {
			log.Fatalf("compile: %v", err)
		}
		for _, s := range stages {
			fmt.Printf("%s: %d bytes of SPIR-V\n", s.Stage, len(program.SPIRV(s.Stage)))
		}
	}
}
