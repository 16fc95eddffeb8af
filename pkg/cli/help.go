/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import "fmt"

// ShowHelp displays the help message.
func ShowHelp() {
	fmt.Print(`alsa-cli: inspect ALSA sound cards as the monitor sees them
Usage:
  alsa-cli list [options]
  alsa-cli watch [options]
  alsa-cli params [options] <card> [kind]
  alsa-cli profile [options] <card> on|off
  alsa-cli version

Commands:
  list     Enumerate the cards once and print them with their streams
  watch    Follow card hotplug events in a live table
  params   Print the parameters of a card (kind: list or profile)
  profile  Switch a card on or off and print the streams it ends with
  version  Print the build version

Options:
  -dev-dir string        directory of the card device nodes (default "/dev/snd")
  -sys-dir string        sysfs mount point (default "/sys")
  -udev-data-dir string  udev database directory (default "/run/udev/data")
  -max-cards int         number of cards to track (default 64)
  -use-acp               announce cards with the profile-aware factory
  -json                  print JSON instead of a table (list only)
  -debug                 log monitor activity to stderr
  -nats-url string       ask the running alsa-monitor instead of opening the card
                         (params and profile only)
  -control-subject string
                         alsa-monitor control subject (default "alsa-control")

Examples:
  alsa-cli list
  alsa-cli list -json | jq '.[].props'
  alsa-cli watch
  alsa-cli params hw:0 profile
  alsa-cli profile -nats-url nats://localhost:4222 hw:1 off
`)
}
