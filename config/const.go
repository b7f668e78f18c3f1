//  Copyright (c) 2023 Uber Technologies, Inc.
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

package config

// This file hosts non-user-configurable parameters --- these are for development and testing purposes only.

// StableRoundLimit is the number of passes over a loop body after which, if the states flowing into
// the loop head did not change, the fixed point computation halts. The lattice has finite height, so
// the limit only bounds the work on pathological nestings: a state that is still changing after
// StableRoundLimit passes is widened to PotentiallyNull (or Unknown for non-null facts), which is the
// conservative answer. A value of 2 already converges for the loops we have seen in practice.
const StableRoundLimit = 5

// DirLevelsToPrint controls the number of enclosing directories to print when referring to the files
// that diagnostics are reported in - right now it seems as if 1 is sufficient disambiguation, but feel
// free to increase.
const DirLevelsToPrint = 1
