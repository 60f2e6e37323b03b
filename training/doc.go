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


// Package training fits model weights to labelled examples and manages the
// training example collection.
//
// The Trainer runs online gradient descent over a squared-error loss. Each
// example's features are extracted up front, concurrently, and the update
// loop then runs sequentially in input order so every step sees the weights
// produced by the one before it. Weights never drop below core.WeightFloor.
//
// The Dataset keeps the examples in memory, persists every mutation, and
// moves them in and out as JSON.
package training
