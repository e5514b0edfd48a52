// SPDX-License-Identifier: MPL-2.0

package main

import cmd "crmngr-cli/cmd/crmngr"

func main() {
	cmd.Execute()
}
