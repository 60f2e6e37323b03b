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


// Package search ranks candidate products for a query.
//
// The Ranker combines five signal groups into one score per product:
//   - Exact match bonuses for title and category containment
//   - Field-weighted BM25 over title, description and category
//   - Cosine similarity between query and product embeddings
//   - Popularity from rating and review count
//   - Business rules for organic, local and seasonal products
//
// Each group is scaled by the current model weights. Candidates are returned
// in descending score order; ties keep their input order.
package search
