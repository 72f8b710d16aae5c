// Command inkpot serves a blog and manages its posts.
package main

import "github.com/mesh-intelligence/inkpot/internal/cli"

func main() {
	cli.Execute()
}
