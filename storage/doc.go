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


// Package storage provides the persistence abstraction for prodrank.
//
// The ranking core persists three things: the current ModelWeights record,
// the training example collection, and optionally a durable copy of the
// embedding cache. Each lives behind a small repository interface so the
// weight store, the training dataset and the embedding cache never see the
// key-value engine underneath.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return interfaces:
//
//	weights, err := badger.NewWeightRepository(backend) // storage.WeightRepository
//
// # Encoding
//
// Values are encoded with the mus-go serializers generated into core
// (go generate ./core) plus the example-set codec in codecs.go. Every
// record starts with a codec version, and decoding fails with
// ErrSerializationFailed on version mismatch, truncation or trailing bytes.
// Callers that must survive corrupt state (the weight store) treat that
// error like a missing record.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
