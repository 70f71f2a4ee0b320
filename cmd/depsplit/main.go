package main

import "github.com/mvp-joe/depsplit/internal/cli"

func main() {
	cli.Execute()
}
