// SPDX-License-Identifier: MPL-2.0

package main

import cmd "modguard/cmd/modguard"

func main() {
	cmd.Execute()
}
