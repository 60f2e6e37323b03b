// Command musgen regenerates core/records_mus.gen.go, the binary codecs for
// every record the badger store persists. Run it through go generate in core.
package main

import (
	"os"
	"path/filepath"
	"reflect"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/prodrank/core"
)

const output = "core/records_mus.gen.go"

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	// go generate runs from core; write relative to the module root.
	if filepath.Base(cwd) == "core" {
		if err := os.Chdir(".."); err != nil {
			panic(err)
		}
	}

	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/prodrank/core"),
	)
	if err != nil {
		panic(err)
	}

	// Five weights, in ModelWeights field order.
	err = g.AddStruct(reflect.TypeFor[core.ModelWeights](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		panic(err)
	}

	// ClickPosition is a *int and gets a nil-aware pointer codec.
	err = g.AddStruct(reflect.TypeFor[core.TrainingExample](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.EmbeddingRecord](),
		structops.WithField(),
		structops.WithField(typeops.WithLenValidator("ValidateVectorLength")))
	if err != nil {
		panic(err)
	}

	bs, err := g.Generate()
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(output, bs, 0644); err != nil {
		panic(err)
	}
}
