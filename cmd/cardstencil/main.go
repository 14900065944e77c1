// CardStencil - greeting card layout, preview and export.
//
// Usage:
//
//	cardstencil export card.json -o card.png
//	cardstencil preview card.json -o card.svg
//	cardstencil templates
//	cardstencil serve
//	cardstencil init
package main

import "github.com/xob0t/CardStencil/cmd/cardstencil/cmd"

func main() {
	cmd.Execute()
}
