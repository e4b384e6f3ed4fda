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

package cmd

// Viper keys for mewt.toml, mirrored 1:1 by dotted CLI flags so that
// flags.Flag.CfgKey and the mapstructure tags of config.Config agree.
const (
	dbKey = "db"

	logLevelKey = "log.level"
	logColorKey = "log.color"

	targetsIncludeKey = "targets.include"
	targetsIgnoreKey  = "targets.ignore"

	runMutationsKey     = "run.mutations"
	runComprehensiveKey = "run.comprehensive"

	testCmdKey     = "test.cmd"
	testTimeoutKey = "test.timeout"
)
