/*
 * Copyright 2022 The Gremlins Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

/*
Mewt is a mutation testing campaign engine for polyglot source trees. It
parses source files with tree-sitter, synthesizes small semantics-altering
edits at syntactically meaningful positions, and runs a long-lived,
resumable campaign that applies each mutant, runs a user-supplied test
command against it, classifies the outcome, and restores the original
file.

Usage

To run a full campaign from the root of a project:

	$ mewt run

To generate mutants without running tests:

	$ mewt mutate

To test a specific set of previously-synthesized mutants:

	$ mewt test --ids 12,13,14

Outcomes are one of:
  - Uncaught: the test command exited zero; the mutation survived.
  - TestFail: the test command exited non-zero; the mutation was caught.
  - Timeout: the test command did not terminate before the deadline.
  - Skipped: a mutant no more severe than one already Uncaught on its line.

Configuration

Mewt uses Viper (https://github.com/spf13/viper) for configuration. Options
can be set via, in order of precedence:

  - specific command flags
  - environment variables
  - a mewt.toml configuration file

Environment variables use the syntax MEWT_<SECTION>_<KEY>, with dots and
dashes replaced by underscores:

	$ MEWT_TEST_TIMEOUT=30 mewt run

mewt.toml is discovered by walking up from the current directory.
*/
package mewt
