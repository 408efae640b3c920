// SPDX-License-Identifier: MPL-2.0

// Command sxinclude resolves include directives in S-expression documents.
package main

import cmd "github.com/sxinclude/sxinclude/cmd/sxinclude"

func main() {
	cmd.Execute()
}
