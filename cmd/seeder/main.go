// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/prodrank"
	"github.com/poiesic/prodrank/catalog"
	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/training"
)

// Each line is "query|productID|relevant".
var labels = []string{
	"tomatoes|1|true",
	"heirloom tomato|1|true",
	"tomatoes|8|false",
	"strawberries|2|true",
	"berries|2|true",
	"berries|5|false",
	"milk|3|true",
	"whole milk|3|true",
	"milk|7|false",
	"eggs|4|true",
	"dozen eggs|4|true",
	"eggs|3|false",
	"honey|5|true",
	"wildflower honey|5|true",
	"honey|2|false",
	"basil|6|true",
	"fresh basil|6|true",
	"fresh herbs|6|true",
	"fresh|2|true",
	"fresh|7|false",
	"bread|7|true",
	"sourdough|7|true",
	"bread|4|false",
	"avocado|8|true",
	"avocados|8|true",
	"guacamole|8|true",
	"pesto|6|true",
	"pesto|1|false",
	"breakfast|4|true",
	"breakfast|8|false",
}

var (
	seedFileName = flag.String("src", "", "file of labelled examples, one query|productID|relevant per line")
	train        = flag.Bool("train", false, "train the weights after seeding")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

func parseLabel(line string) (core.TrainingExample, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 3 {
		return core.TrainingExample{}, fmt.Errorf("malformed label %q", line)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return core.TrainingExample{}, fmt.Errorf("malformed product id in %q: %w", line, err)
	}
	relevant, err := strconv.ParseBool(strings.TrimSpace(parts[2]))
	if err != nil {
		return core.TrainingExample{}, fmt.Errorf("malformed relevance in %q: %w", line, err)
	}
	return core.TrainingExample{Query: strings.TrimSpace(parts[0]), ProductID: id, IsRelevant: relevant}, nil
}

// seed parses every non-blank line and stores the examples in one write.
func seed(ctx context.Context, dataset *training.Dataset, products []core.Product, source iter.Seq[string]) (int, error) {
	examples := dataset.Examples()
	added := 0
	for line := range source {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ex, err := parseLabel(line)
		if err != nil {
			return 0, err
		}
		if !slices.ContainsFunc(products, func(p core.Product) bool { return p.ID == ex.ProductID }) {
			slog.Warn("skipping label for unknown product", "line", line)
			continue
		}
		examples = append(examples, ex)
		added++
	}
	return added, dataset.Replace(ctx, examples)
}

func main() {
	engine, err := prodrank.NewEngine("./prodrank-data")
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()
	products := catalog.Sample()

	// Determine source of seed data
	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(labels)
	}

	added, err := seed(ctx, engine.Dataset(), products, source)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded training examples", "added", added, "total", engine.Dataset().Len())

	if *train {
		report, err := engine.TrainDataset(ctx, products, 0.01, 50)
		if err != nil {
			panic(err)
		}
		slog.Info("trained weights", "initialLoss", report.InitialLoss, "finalLoss", report.FinalLoss, "weights", report.Weights)
	}
}
