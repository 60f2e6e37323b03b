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
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/prodrank"
	"github.com/poiesic/prodrank/catalog"
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	engine, err := prodrank.NewEngine("./prodrank-data")
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	query := "fresh"
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}

	ctx := context.Background()
	results, err := engine.Score(ctx, query, catalog.Sample())
	if err != nil {
		panic(err)
	}

	fmt.Printf("Ranked %d products for %q\n", len(results), query)
	for i, hit := range results[:min(5, len(results))] {
		fmt.Printf("%d: '%s' (%d)[%0.3f]\n", i, hit.Product.Name, hit.Product.ID, hit.Score.Final)
	}
}
