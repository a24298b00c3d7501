// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

// Visibility is the access classification applied to objects at write time.
type Visibility string

const (
	// Public objects are readable by anyone.
	Public Visibility = "public"
	// Private objects are readable only with credentials.
	Private Visibility = "private"
)

// ResolveVisibility returns Public only for the exact string "public". Everything else, including
// the empty string, is Private.
func ResolveVisibility(v string) Visibility {
	if Visibility(v) == Public {
		return Public
	}
	return Private
}

// String returns the configuration spelling of the visibility.
func (v Visibility) String() string { return string(v) }
